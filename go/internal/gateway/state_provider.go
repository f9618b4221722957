package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/clock"
	"github.com/mcdev12/votearena/go/internal/competition/view"
)

// StateProvider answers read model requests from the cheapest source that
// has one: a running view, then the cache, then a one-shot build from the
// store. A cached model is only served while its phase still holds.
type StateProvider struct {
	registry *Registry
	cache    ModelCache
	store    view.Store
	clock    clock.Clock
}

func NewStateProvider(registry *Registry, cache ModelCache, store view.Store, clk clock.Clock) *StateProvider {
	if clk == nil {
		clk = clock.Real()
	}
	return &StateProvider{registry: registry, cache: cache, store: store, clock: clk}
}

func (p *StateProvider) GetReadModel(ctx context.Context, competitionID uuid.UUID) (*view.ReadModel, error) {
	if p.registry != nil {
		if m := p.registry.Current(competitionID); m != nil {
			return m, nil
		}
	}

	now := p.clock.Now()
	if p.cache != nil {
		m, err := p.cache.Get(ctx, competitionID)
		switch {
		case err != nil:
			log.Warn().Err(err).Str("competition_id", competitionID.String()).Msg("read model cache unavailable")
		case m != nil && m.FreshAt(now):
			return m.At(now), nil
		case m != nil:
			log.Debug().Str("competition_id", competitionID.String()).Msg("cached read model is past a phase boundary, rebuilding")
		}
	}

	snap, err := p.store.LoadSnapshot(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("load competition snapshot: %w", err)
	}
	m := view.Build(snap, now)
	if p.cache != nil {
		if err := p.cache.Set(ctx, m); err != nil {
			log.Warn().Err(err).Str("competition_id", competitionID.String()).Msg("failed to cache built read model")
		}
	}
	return m, nil
}
