package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/competition/events"
	"github.com/mcdev12/votearena/go/internal/realtime"
)

// Subscribe starts an ordered consumer on the competition's subject for kind.
// Only events published after the call are delivered; the caller's snapshot
// covers everything earlier.
func (c *Conn) Subscribe(ctx context.Context, competitionID uuid.UUID, kind events.Kind) (realtime.Subscription, error) {
	subj := subject(c.cfg.SubjectPrefix, competitionID, kind)

	consumer, err := c.js.OrderedConsumer(ctx, c.cfg.StreamName, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{subj},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("create ordered consumer for %s: %w", subj, err)
	}

	buffer := c.cfg.Buffer
	if buffer <= 0 {
		buffer = 1
	}
	sub := &subscription{
		ch:   make(chan events.Envelope, buffer),
		done: make(chan struct{}),
	}

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		env, err := decodeEnvelope(msg.Data())
		if err != nil {
			log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to decode event envelope")
			return
		}
		sub.deliver(env)
	}, jetstream.ConsumeErrHandler(func(_ jetstream.ConsumeContext, err error) {
		log.Warn().Err(err).Str("subject", subj).Msg("JetStream consume error")
	}))
	if err != nil {
		return nil, fmt.Errorf("start consumer for %s: %w", subj, err)
	}
	sub.consumeCtx = consumeCtx

	log.Debug().Str("subject", subj).Msg("subscribed to JetStream subject")
	return sub, nil
}

type subscription struct {
	ch         chan events.Envelope
	done       chan struct{}
	consumeCtx jetstream.ConsumeContext

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

func (s *subscription) Events() <-chan events.Envelope {
	return s.ch
}

func (s *subscription) deliver(env events.Envelope) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- env:
	case <-s.done:
	}
}

func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		close(s.done)
		if s.consumeCtx != nil {
			s.consumeCtx.Stop()
		}
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}

func decodeEnvelope(data []byte) (events.Envelope, error) {
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.Envelope{}, fmt.Errorf("unmarshal event envelope: %w", err)
	}
	if env.CompetitionID == uuid.Nil {
		return events.Envelope{}, fmt.Errorf("event %s has no competition id", env.EventID)
	}
	return env, nil
}
