package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/cache"
	"github.com/mcdev12/votearena/go/internal/competition/view"
	"github.com/mcdev12/votearena/go/internal/config"
	"github.com/mcdev12/votearena/go/internal/gateway"
	"github.com/mcdev12/votearena/go/internal/realtime"
	"github.com/mcdev12/votearena/go/internal/realtime/memory"
	"github.com/mcdev12/votearena/go/internal/realtime/natsbus"
	"github.com/mcdev12/votearena/go/internal/realtime/pgnotify"
	"github.com/mcdev12/votearena/go/internal/service"
	"github.com/mcdev12/votearena/go/internal/store"
)

type Services struct {
	Pool        *pgxpool.Pool
	Store       *store.Repository
	Transport   realtime.Transport
	Publisher   realtime.Publisher
	Gateway     *gateway.Service
	Competition *service.Service

	// background loops started by serve
	background []func(ctx context.Context) error
	closers    []func()
}

// Close releases resources in reverse order of creation.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func setupServices(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*Services, error) {
	// Wire up dependency injection chain
	// Database → Repository → Transport → Gateway → Connect service
	s := &Services{}

	pool, err := setupDatabase(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	s.Pool = pool
	s.closers = append(s.closers, pool.Close)
	s.Store = store.NewRepository(pool)

	if err := s.setupTransport(ctx, cfg); err != nil {
		s.Close()
		return nil, err
	}

	var modelCache gateway.ModelCache
	if cfg.Redis.Enabled() {
		rdb, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() { rdb.Close() })
		modelCache = cache.NewReadModels(rdb, cfg.Redis.TTL)
	}

	s.Gateway = gateway.NewService(cfg.Gateway, gateway.Deps{
		Store:     s.Store,
		Transport: s.Transport,
		Cache:     modelCache,
		Metrics:   view.NewMetrics(reg),
	})
	s.background = append(s.background, s.Gateway.Start)
	s.Competition = service.NewService(s.Store, s.Gateway.StateProvider(), nil)

	return s, nil
}

func (s *Services) setupTransport(ctx context.Context, cfg *config.Config) error {
	switch cfg.Realtime.Transport {
	case config.TransportMemory:
		bus := memory.NewBus()
		s.Transport, s.Publisher = bus, bus
		s.closers = append(s.closers, bus.Close)

	case config.TransportNATS:
		conn, err := natsbus.Connect(ctx, cfg.Realtime.NATS)
		if err != nil {
			return fmt.Errorf("failed to connect realtime transport: %w", err)
		}
		s.Transport, s.Publisher = conn, conn
		s.closers = append(s.closers, func() { conn.Close() })

	case config.TransportPostgres:
		db, err := setupNotifyDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		s.closers = append(s.closers, func() { db.Close() })

		pgCfg := cfg.Realtime.Postgres
		pgCfg.DatabaseURL = cfg.Database.DSN()
		listener, err := pgnotify.NewListener(db, pgCfg)
		if err != nil {
			return fmt.Errorf("failed to start notify listener: %w", err)
		}
		s.Transport, s.Publisher = listener, listener
		s.background = append(s.background, listener.Start)
		s.closers = append(s.closers, func() { listener.Stop() })

	default:
		return fmt.Errorf("unknown realtime transport %q", cfg.Realtime.Transport)
	}

	log.Info().Str("transport", string(cfg.Realtime.Transport)).Msg("realtime transport ready")
	return nil
}

// runBackground starts every background loop and reports the first failure.
func (s *Services) runBackground(ctx context.Context) <-chan error {
	errCh := make(chan error, len(s.background))
	for _, run := range s.background {
		go func() {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
			}
		}()
	}
	return errCh
}
