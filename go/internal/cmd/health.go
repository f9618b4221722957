package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy            bool     `json:"healthy"`
	DatabaseConnected  bool     `json:"database_connected"`
	TransportConnected bool     `json:"transport_connected"`
	Errors             []string `json:"errors"`
}

type pinger interface {
	Ping(ctx context.Context) error
}

// connectionReporter is implemented by transports with a network link.
type connectionReporter interface {
	Connected() bool
}

type healthChecker struct {
	db        pinger
	transport any
}

func (h healthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{Healthy: true, Errors: []string{}}

	if err := h.db.Ping(ctx); err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, fmt.Sprintf("database ping failed: %v", err))
	} else {
		status.DatabaseConnected = true
	}

	status.TransportConnected = true
	if r, ok := h.transport.(connectionReporter); ok && !r.Connected() {
		status.TransportConnected = false
		status.Healthy = false
		status.Errors = append(status.Errors, "realtime transport disconnected")
	}
	return status
}

func (h healthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health check response")
	}
}
