package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/clock"
	"github.com/mcdev12/votearena/go/internal/competition/view"
	"github.com/mcdev12/votearena/go/internal/realtime"
)

// ModelCache stores published read models. Implemented by cache.ReadModels.
type ModelCache interface {
	Get(ctx context.Context, competitionID uuid.UUID) (*view.ReadModel, error)
	Set(ctx context.Context, m *view.ReadModel) error
	Invalidate(ctx context.Context, competitionID uuid.UUID) error
}

const invalidateTimeout = 2 * time.Second

// Registry shares one live view per competition between every WebSocket
// watching it. A view is disposed when its last watcher releases it.
type Registry struct {
	store     view.Store
	transport realtime.Transport
	clock     clock.Clock
	tick      time.Duration
	metrics   *view.Metrics
	cache     ModelCache

	// onPublish receives every model published by any view. Must not block.
	onPublish func(*view.ReadModel)

	// cacheCh orders writes and invalidations; a nil model invalidates.
	cacheCh chan cacheOp
	stop    chan struct{}

	// mu guards the map only. Snapshot loads run outside it.
	mu     sync.Mutex
	views  map[uuid.UUID]*entry
	closed bool
}

type cacheOp struct {
	competitionID uuid.UUID
	model         *view.ReadModel
}

// entry is a view that is loaded or still loading. ready is closed once the
// load finished; err is set before that when it failed.
type entry struct {
	view  *view.View
	refs  int
	ready chan struct{}
	err   error
}

type RegistryConfig struct {
	Clock        clock.Clock
	TickInterval time.Duration
	Metrics      *view.Metrics
	Cache        ModelCache
}

func NewRegistry(store view.Store, transport realtime.Transport, cfg RegistryConfig) *Registry {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	return &Registry{
		store:     store,
		transport: transport,
		clock:     cfg.Clock,
		tick:      cfg.TickInterval,
		metrics:   cfg.Metrics,
		cache:     cfg.Cache,
		cacheCh:   make(chan cacheOp, 256),
		stop:      make(chan struct{}),
		views:     make(map[uuid.UUID]*entry),
	}
}

// Acquire returns the live view of competitionID, loading it on first use.
// Concurrent callers for the same competition share one load; callers for
// other competitions are not held up by it. Every successful call must be
// paired with a call to release.
func (r *Registry) Acquire(ctx context.Context, competitionID uuid.UUID) (*view.View, func(), error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, nil, view.ErrDisposed
	}

	if e, ok := r.views[competitionID]; ok {
		e.refs++
		r.mu.Unlock()

		select {
		case <-e.ready:
		case <-ctx.Done():
			r.release(competitionID, e)
			return nil, nil, ctx.Err()
		}
		if e.err != nil {
			r.release(competitionID, e)
			return nil, nil, e.err
		}
		return e.view, r.releaser(competitionID, e), nil
	}

	e := &entry{
		view: view.New(r.store, r.transport,
			view.WithClock(r.clock),
			view.WithTickInterval(r.tick),
			view.WithMetrics(r.metrics),
			view.WithListener(r.published),
		),
		refs:  1,
		ready: make(chan struct{}),
	}
	r.views[competitionID] = e
	r.mu.Unlock()

	err := e.view.Load(ctx, competitionID)

	r.mu.Lock()
	if err == nil && r.views[competitionID] != e {
		// closed while loading
		err = view.ErrDisposed
	}
	if err != nil {
		e.err = err
		if r.views[competitionID] == e {
			delete(r.views, competitionID)
		}
	}
	close(e.ready)
	r.mu.Unlock()

	if err != nil {
		e.view.Dispose()
		return nil, nil, err
	}
	return e.view, r.releaser(competitionID, e), nil
}

func (r *Registry) releaser(competitionID uuid.UUID, e *entry) func() {
	var once sync.Once
	return func() {
		once.Do(func() { r.release(competitionID, e) })
	}
}

func (r *Registry) release(competitionID uuid.UUID, e *entry) {
	r.mu.Lock()
	e.refs--
	if e.refs > 0 || r.views[competitionID] != e {
		r.mu.Unlock()
		return
	}
	delete(r.views, competitionID)
	r.mu.Unlock()

	e.view.Dispose()
	// nothing keeps the cached model current any more
	r.invalidate(competitionID)
	log.Debug().Str("competition_id", competitionID.String()).Msg("disposed idle competition view")
}

// Current returns the live model of competitionID if a view is running.
func (r *Registry) Current(competitionID uuid.UUID) *view.ReadModel {
	r.mu.Lock()
	e, ok := r.views[competitionID]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	// nil while the view is still loading
	return e.view.Current()
}

// Active is the number of running or loading views.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// published runs on a view loop goroutine.
func (r *Registry) published(m *view.ReadModel) {
	if r.onPublish != nil {
		r.onPublish(m)
	}
	if r.cache == nil {
		return
	}
	select {
	case r.cacheCh <- cacheOp{competitionID: m.CompetitionID, model: m}:
	default:
		log.Warn().Str("competition_id", m.CompetitionID.String()).Msg("cache queue full, skipping write")
	}
}

// invalidate queues behind any pending writes for the competition, so a
// write still in the queue cannot bring the entry back.
func (r *Registry) invalidate(competitionID uuid.UUID) {
	if r.cache == nil {
		return
	}
	select {
	case r.cacheCh <- cacheOp{competitionID: competitionID}:
	case <-r.stop:
	}
}

// Start writes published models to the cache until ctx is done.
func (r *Registry) Start(ctx context.Context) {
	if r.cache == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-r.cacheCh:
			r.applyCacheOp(ctx, op)
		}
	}
}

func (r *Registry) applyCacheOp(ctx context.Context, op cacheOp) {
	logger := log.With().Str("competition_id", op.competitionID.String()).Logger()
	if op.model == nil {
		if err := r.cache.Invalidate(ctx, op.competitionID); err != nil {
			logger.Error().Err(err).Msg("failed to invalidate cached read model")
		}
		return
	}
	if err := r.cache.Set(ctx, op.model); err != nil {
		logger.Error().Err(err).Msg("failed to cache read model")
	}
}

// Close disposes every view and drops their cached models. Later Acquire
// calls fail.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	entries := make(map[uuid.UUID]*entry, len(r.views))
	for id, e := range r.views {
		entries[id] = e
		delete(r.views, id)
	}
	r.mu.Unlock()
	close(r.stop)

	for id, e := range entries {
		e.view.Dispose()
		if r.cache == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
		if err := r.cache.Invalidate(ctx, id); err != nil {
			log.Warn().Err(err).Str("competition_id", id.String()).Msg("failed to invalidate cached read model")
		}
		cancel()
	}
}
