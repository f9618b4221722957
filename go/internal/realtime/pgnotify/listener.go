// Package pgnotify delivers competition events through Postgres
// LISTEN/NOTIFY.
//
// A notification payload is either a complete JSON envelope or the UUID
// of a row in competition_events, used when the envelope would not fit in
// a NOTIFY payload.
package pgnotify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/votearena/go/internal/competition/events"
	"github.com/mcdev12/votearena/go/internal/realtime"
)

// maxInlinePayload stays under the 8000 byte NOTIFY limit.
const maxInlinePayload = 7900

type Config struct {
	DatabaseURL  string        `yaml:"-"`
	Channel      string        `yaml:"channel"`
	MinReconnect time.Duration `yaml:"minReconnect" split_words:"true"`
	MaxReconnect time.Duration `yaml:"maxReconnect" split_words:"true"`
	PingInterval time.Duration `yaml:"pingInterval" split_words:"true"`
	Buffer       int           `yaml:"buffer"`
}

func DefaultConfig() Config {
	return Config{
		Channel:      "competition_events",
		MinReconnect: 10 * time.Second,
		MaxReconnect: time.Minute,
		PingInterval: 90 * time.Second,
		Buffer:       256,
	}
}

// Listener is a Transport and Publisher backed by a single LISTEN
// connection shared by every subscription.
type Listener struct {
	*hub
	db       *sql.DB
	listener *pq.Listener
	cfg      Config
}

var (
	_ realtime.Transport = (*Listener)(nil)
	_ realtime.Publisher = (*Listener)(nil)
)

func NewListener(db *sql.DB, cfg Config) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		cfg.MinReconnect,
		cfg.MaxReconnect,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("listener event")
			}
		},
	)
	if err := l.Listen(cfg.Channel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().Str("channel", cfg.Channel).Msg("listening for notifications")

	return &Listener{
		hub:      newHub(cfg.Buffer),
		db:       db,
		listener: l,
		cfg:      cfg,
	}, nil
}

// Start pumps notifications until ctx is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	log.Info().
		Str("channel", l.cfg.Channel).
		Dur("ping_interval", l.cfg.PingInterval).
		Msg("listener started")

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// connection was re-established; anything sent meanwhile is lost
				l.dropAll()
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Msg("failed to handle notification")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	l.dropAll()
	return l.listener.Close()
}

// Subscribe registers a feed; delivery starts with the next notification.
func (l *Listener) Subscribe(ctx context.Context, competitionID uuid.UUID, kind events.Kind) (realtime.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.add(competitionID, kind), nil
}

// Publish stores the envelope and notifies listeners. Small envelopes are
// sent inline; larger ones are referenced by ID.
func (l *Listener) Publish(ctx context.Context, env events.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, insertEventSQL,
		env.EventID, env.CompetitionID, string(env.Kind), env.Payload, env.Timestamp,
	); err != nil {
		return fmt.Errorf("insert competition event: %w", err)
	}

	payload := string(data)
	if len(data) > maxInlinePayload {
		payload = env.EventID.String()
	}
	if _, err := l.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", l.cfg.Channel, payload); err != nil {
		return fmt.Errorf("notify %s: %w", l.cfg.Channel, err)
	}
	return nil
}

func (l *Listener) handleNotification(ctx context.Context, extra string) error {
	env, err := decodeNotification(ctx, extra, l.fetchEvent)
	if err != nil {
		return err
	}
	n := l.dispatch(env)
	log.Debug().
		Str("event_id", env.EventID.String()).
		Str("kind", string(env.Kind)).
		Int("subscribers", n).
		Msg("dispatched notification")
	return nil
}

const insertEventSQL = `
INSERT INTO competition_events (id, competition_id, kind, payload, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`

const fetchEventSQL = `
SELECT id, competition_id, kind, payload, created_at
FROM competition_events
WHERE id = $1`

func (l *Listener) fetchEvent(ctx context.Context, id uuid.UUID) (events.Envelope, error) {
	var (
		env     events.Envelope
		kind    string
		payload pqtype.NullRawMessage
	)
	err := l.db.QueryRowContext(ctx, fetchEventSQL, id).
		Scan(&env.EventID, &env.CompetitionID, &kind, &payload, &env.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return events.Envelope{}, fmt.Errorf("competition event %s not found", id)
		}
		return events.Envelope{}, fmt.Errorf("fetch competition event: %w", err)
	}
	env.Kind = events.Kind(kind)
	if payload.Valid {
		env.Payload = payload.RawMessage
	}
	return env, nil
}

type fetchFunc func(ctx context.Context, id uuid.UUID) (events.Envelope, error)

func decodeNotification(ctx context.Context, extra string, fetch fetchFunc) (events.Envelope, error) {
	extra = strings.TrimSpace(extra)
	if strings.HasPrefix(extra, "{") {
		var env events.Envelope
		if err := json.Unmarshal([]byte(extra), &env); err != nil {
			return events.Envelope{}, fmt.Errorf("decode notification envelope: %w", err)
		}
		return env, nil
	}

	id, err := uuid.Parse(extra)
	if err != nil {
		return events.Envelope{}, fmt.Errorf("invalid event ID in notification: %w", err)
	}
	return fetch(ctx, id)
}
