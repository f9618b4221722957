// Package view composes the phase resolver, prize pool, revenue aggregator
// and leaderboard into a live public read model for one competition.
//
// A View owns a single loop goroutine. The loop is the only writer of the
// read model; readers get immutable snapshots through Current.
package view

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/clock"
	"github.com/mcdev12/votearena/go/internal/competition/phase"
	"github.com/mcdev12/votearena/go/internal/models"
	"github.com/mcdev12/votearena/go/internal/realtime"
)

// ErrDisposed is returned by Load after Dispose.
var ErrDisposed = errors.New("view disposed")

// DefaultTickInterval is how often the phase is re-evaluated.
const DefaultTickInterval = time.Second

// Store fetches a competition with its rounds, periods, votes and contestants
type Store interface {
	LoadSnapshot(ctx context.Context, competitionID uuid.UUID) (*models.Snapshot, error)
}

// Option configures a View
type Option func(*View)

// WithClock sets the clock used for phase evaluation and ticking.
func WithClock(c clock.Clock) Option {
	return func(v *View) { v.clock = c }
}

// WithTickInterval sets how often the phase is re-evaluated.
func WithTickInterval(d time.Duration) Option {
	return func(v *View) {
		if d > 0 {
			v.tick = d
		}
	}
}

// WithListener registers a callback invoked with every published read model.
// It runs on the view's loop goroutine and must not block.
func WithListener(fn func(*ReadModel)) Option {
	return func(v *View) { v.listener = fn }
}

// WithMetrics records view activity on m.
func WithMetrics(m *Metrics) Option {
	return func(v *View) { v.metrics = m }
}

// WithLogger sets the base logger.
func WithLogger(l zerolog.Logger) Option {
	return func(v *View) { v.logger = l }
}

// View is the live public read model of one competition at a time
type View struct {
	store     Store
	transport realtime.Transport
	clock     clock.Clock
	tick      time.Duration
	listener  func(*ReadModel)
	metrics   *Metrics
	logger    zerolog.Logger

	current atomic.Pointer[ReadModel]

	// mu guards the loop lifecycle only; the read model itself is owned by the loop.
	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	disposed bool
}

// New creates a view. Nothing is fetched or subscribed until Load.
func New(store Store, transport realtime.Transport, opts ...Option) *View {
	v := &View{
		store:     store,
		transport: transport,
		clock:     clock.Real(),
		tick:      DefaultTickInterval,
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With().Str("component", "competition_view").Logger()
	return v
}

// Load switches the view to competitionID. Any previous competition's
// subscriptions are torn down first. The snapshot fetch is the only blocking
// step; on failure the previously published model is left in place.
func (v *View) Load(ctx context.Context, competitionID uuid.UUID) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.disposed {
		return ErrDisposed
	}
	v.stopLocked()

	snap, err := v.store.LoadSnapshot(ctx, competitionID)
	if err != nil {
		return fmt.Errorf("failed to load competition %s: %w", competitionID, err)
	}

	logger := v.logger.With().Str("competition_id", competitionID.String()).Logger()
	for _, o := range phase.OverlappingRounds(snap.Rounds) {
		logger.Warn().
			Int("round", o.First.Order()).
			Int("overlapping_round", o.Second.Order()).
			Msg("voting rounds overlap; the earlier listed round takes precedence")
	}

	now := v.clock.Now()
	st := newState(snap, now)
	st.resolve(now)
	// Feeds only carry events published after they open. Refetch once both
	// are open so writes landing between this fetch and the subscribe are
	// not lost; vote IDs absorb the overlap.
	st.resync = true
	v.publish(st.model(now))

	loopCtx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	v.done = make(chan struct{})
	v.metrics.viewDelta(1)
	go v.run(loopCtx, st, v.done, logger)

	logger.Info().
		Str("phase", st.phase.Phase).
		Bool("voting", st.phase.IsVoting).
		Int("contestants", len(snap.Contestants)).
		Int("votes", len(snap.Votes)).
		Msg("competition view loaded")
	return nil
}

// Current returns the most recently published read model, or nil before the
// first successful Load.
func (v *View) Current() *ReadModel {
	return v.current.Load()
}

// Dispose stops the loop and unsubscribes from the transport before
// returning. It is safe to call more than once; events that arrive afterwards
// are discarded.
func (v *View) Dispose() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.disposed {
		return
	}
	v.disposed = true
	v.stopLocked()
}

func (v *View) stopLocked() {
	if v.cancel == nil {
		return
	}
	v.cancel()
	<-v.done
	v.cancel = nil
	v.done = nil
	v.metrics.viewDelta(-1)
}

func (v *View) publish(m *ReadModel) {
	v.current.Store(m)
	v.metrics.published()
	if v.listener != nil {
		v.listener(m)
	}
}
