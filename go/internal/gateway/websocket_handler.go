package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/store"
)

// WebSocketHandler upgrades watchers of a competition
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	registry          *Registry
}

func NewWebSocketHandler(cm *ConnectionManager, registry *Registry) *WebSocketHandler {
	return &WebSocketHandler{connectionManager: cm, registry: registry}
}

// HandleCompetitionConnection serves /ws/competition?competition_id=
func (h *WebSocketHandler) HandleCompetitionConnection(w http.ResponseWriter, r *http.Request) {
	idStr := r.URL.Query().Get("competition_id")
	if idStr == "" {
		http.Error(w, "competition_id is required", http.StatusBadRequest)
		return
	}
	competitionID, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "invalid competition_id format", http.StatusBadRequest)
		return
	}

	v, release, err := h.registry.Acquire(r.Context(), competitionID)
	if err != nil {
		if errors.Is(err, store.ErrCompetitionNotFound) {
			http.Error(w, "competition not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("competition_id", competitionID.String()).Msg("failed to load competition view")
		http.Error(w, "failed to load competition", http.StatusInternalServerError)
		return
	}

	// Upgrade writes its own error response on failure.
	if err := h.connectionManager.UpgradeConnection(w, r, competitionID, v.Current(), release); err != nil {
		release()
		log.Error().Err(err).Str("competition_id", competitionID.String()).Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats reports open connections and running views.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats := struct {
		ConnectionStats
		ActiveViews int `json:"active_views"`
	}{
		ConnectionStats: h.connectionManager.GetConnectionStats(),
		ActiveViews:     h.registry.Active(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to encode connection stats")
	}
}

func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/competition", h.HandleCompetitionConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
