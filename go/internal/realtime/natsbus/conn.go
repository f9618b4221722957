// Package natsbus carries competition events over NATS JetStream.
package natsbus

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/competition/events"
	"github.com/mcdev12/votearena/go/internal/realtime"
)

type Config struct {
	URL             string        `yaml:"url"             envconfig:"NATS_URL"`
	StreamName      string        `yaml:"stream"          split_words:"true"`
	SubjectPrefix   string        `yaml:"subjectPrefix"   split_words:"true"`
	MaxReconnects   int           `yaml:"maxReconnects"   split_words:"true"`
	ReconnectWait   time.Duration `yaml:"reconnectWait"   split_words:"true"`
	MaxAge          time.Duration `yaml:"maxAge"          split_words:"true"` // How long to keep messages
	Replicas        int           `yaml:"replicas"`
	DuplicateWindow time.Duration `yaml:"duplicateWindow" split_words:"true"` // Window for duplicate detection
	Buffer          int           `yaml:"buffer"`                             // Per-subscription channel size
}

func DefaultConfig() Config {
	return Config{
		URL:             nats.DefaultURL,
		StreamName:      "COMPETITION_EVENTS",
		SubjectPrefix:   "competition.events",
		MaxReconnects:   -1, // Infinite
		ReconnectWait:   2 * time.Second,
		MaxAge:          7 * 24 * time.Hour,
		Replicas:        1,
		DuplicateWindow: 2 * time.Hour,
		Buffer:          256,
	}
}

// Conn is a JetStream connection that both publishes and subscribes
type Conn struct {
	nc  *nats.Conn
	js  jetstream.JetStream
	cfg Config
}

var (
	_ realtime.Transport = (*Conn)(nil)
	_ realtime.Publisher = (*Conn)(nil)
)

// Connect dials NATS and makes sure the event stream exists.
func Connect(ctx context.Context, cfg Config) (*Conn, error) {
	opts := []nats.Option{
		nats.Name("votearena"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	c := &Conn{nc: nc, js: js, cfg: cfg}
	if err := c.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	return c, nil
}

func (c *Conn) streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        c.cfg.StreamName,
		Description: "Competition vote and contestant change events",
		Subjects:    []string{c.cfg.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      c.cfg.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    c.cfg.Replicas,
		Duplicates:  c.cfg.DuplicateWindow,
	}
}

func (c *Conn) ensureStream(ctx context.Context) error {
	sc := c.streamConfig()

	stream, err := c.js.Stream(ctx, c.cfg.StreamName)
	if err != nil {
		if _, err = c.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", c.cfg.StreamName).Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if !isStreamConfigEqual(info.Config, sc) {
		if _, err = c.js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		log.Info().Str("stream", c.cfg.StreamName).Msg("updated JetStream stream")
	}
	return nil
}

// Connected reports whether the underlying NATS connection is up.
func (c *Conn) Connected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

func (c *Conn) Close() error {
	if c.nc != nil {
		c.nc.Close()
	}
	return nil
}

// subject is <prefix>.<competition id>.<kind>.
func subject(prefix string, competitionID uuid.UUID, kind events.Kind) string {
	return fmt.Sprintf("%s.%s.%s", prefix, competitionID, kind)
}

func isStreamConfigEqual(a, b jetstream.StreamConfig) bool {
	if len(a.Subjects) != len(b.Subjects) {
		return false
	}
	for i := range a.Subjects {
		if a.Subjects[i] != b.Subjects[i] {
			return false
		}
	}
	return a.Name == b.Name &&
		a.MaxAge == b.MaxAge &&
		a.Replicas == b.Replicas &&
		a.Duplicates == b.Duplicates
}
