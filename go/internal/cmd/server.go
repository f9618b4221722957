package main

import (
	"fmt"
	"net/http"

	"connectrpc.com/grpchealth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mcdev12/votearena/go/internal/config"
	"github.com/mcdev12/votearena/go/internal/service"
)

func setupServer(cfg *config.Config, services *Services, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	registerServices(mux, services)
	setupHealthCheck(mux, services)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	handler := c.Handler(mux)

	// No WriteTimeout: WebSocket streams are long lived.
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
}

func registerServices(mux *http.ServeMux, services *Services) {
	// Connect RPC
	competitionPath, competitionHandler := service.NewCompetitionServiceHandler(services.Competition)
	mux.Handle(competitionPath, competitionHandler)

	mux.Handle(grpchealth.NewHandler(
		grpchealth.NewStaticChecker(service.CompetitionServiceName),
	))

	// WebSocket and REST state
	services.Gateway.RegisterRoutes(mux)
}

func setupHealthCheck(mux *http.ServeMux, services *Services) {
	mux.Handle("/health", healthChecker{db: services.Pool, transport: services.Transport})
}
