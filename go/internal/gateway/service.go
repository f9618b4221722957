// Package gateway streams live competition read models to WebSocket clients
// and serves point-in-time state over HTTP.
package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/clock"
	"github.com/mcdev12/votearena/go/internal/competition/view"
	"github.com/mcdev12/votearena/go/internal/realtime"
)

// Service wires the registry, connection manager and handlers together
type Service struct {
	connectionManager *ConnectionManager
	registry          *Registry
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
	stateProvider     *StateProvider
}

type Config struct {
	Connection   ConnectionConfig `yaml:"connection"`
	TickInterval time.Duration    `yaml:"tickInterval" split_words:"true"`
}

func DefaultConfig() Config {
	return Config{
		Connection:   DefaultConnectionConfig(),
		TickInterval: view.DefaultTickInterval,
	}
}

// Deps are the collaborators the gateway needs. Cache, Metrics and Clock
// are optional.
type Deps struct {
	Store     view.Store
	Transport realtime.Transport
	Cache     ModelCache
	Metrics   *view.Metrics
	Clock     clock.Clock
}

func NewService(cfg Config, deps Deps) *Service {
	cm := NewConnectionManager(cfg.Connection)
	registry := NewRegistry(deps.Store, deps.Transport, RegistryConfig{
		Clock:        deps.Clock,
		TickInterval: cfg.TickInterval,
		Metrics:      deps.Metrics,
		Cache:        deps.Cache,
	})
	registry.onPublish = cm.Broadcast

	provider := NewStateProvider(registry, deps.Cache, deps.Store, deps.Clock)

	return &Service{
		connectionManager: cm,
		registry:          registry,
		wsHandler:         NewWebSocketHandler(cm, registry),
		stateHandler:      NewStateHandler(provider),
		stateProvider:     provider,
	}
}

// Start runs the broadcast and cache loops until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting competition gateway service")

	go s.connectionManager.Start(ctx)
	go s.registry.Start(ctx)

	<-ctx.Done()

	log.Info().Msg("competition gateway service shutting down")
	return s.Stop()
}

// Stop closes client connections and disposes every live view.
func (s *Service) Stop() error {
	s.connectionManager.CloseAll()
	s.registry.Close()
	log.Info().Msg("competition gateway service stopped")
	return nil
}

func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("competition gateway routes registered")
}

// StateProvider exposes the read model lookup for other transports.
func (s *Service) StateProvider() *StateProvider {
	return s.stateProvider
}
