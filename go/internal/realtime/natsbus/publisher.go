package natsbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/competition/events"
)

// Publish writes env to its competition subject. The event ID doubles as
// the JetStream message ID so redeliveries inside the duplicate window are
// dropped by the server.
func (c *Conn) Publish(ctx context.Context, env events.Envelope) error {
	subj := subject(c.cfg.SubjectPrefix, env.CompetitionID, env.Kind)

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ack, err := c.js.PublishMsg(ctx, &nats.Msg{
		Subject: subj,
		Data:    data,
		Header: nats.Header{
			"Event-Kind":     []string{string(env.Kind)},
			"Competition-ID": []string{env.CompetitionID.String()},
			"Event-ID":       []string{env.EventID.String()},
		},
	},
		jetstream.WithMsgID(env.EventID.String()),
		jetstream.WithExpectStream(c.cfg.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Info().
		Str("subject", subj).
		Str("event_id", env.EventID.String()).
		Uint64("sequence", ack.Sequence).
		Str("stream", ack.Stream).
		Msg("published to JetStream")
	return nil
}
