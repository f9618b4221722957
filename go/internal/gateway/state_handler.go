package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/votearena/go/internal/competition/view"
	"github.com/mcdev12/votearena/go/internal/store"
)

// ReadModelSource is implemented by StateProvider.
type ReadModelSource interface {
	GetReadModel(ctx context.Context, competitionID uuid.UUID) (*view.ReadModel, error)
}

// StateHandler serves GET /api/competitions/{id}/state
type StateHandler struct {
	source ReadModelSource
}

func NewStateHandler(source ReadModelSource) *StateHandler {
	return &StateHandler{source: source}
}

func (h *StateHandler) HandleGetCompetitionState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	idStr := extractCompetitionIDFromPath(r.URL.Path)
	if idStr == "" {
		http.Error(w, "Competition ID is required", http.StatusBadRequest)
		return
	}
	competitionID, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "Invalid competition ID format", http.StatusBadRequest)
		return
	}

	m, err := h.source.GetReadModel(r.Context(), competitionID)
	if err != nil {
		if errors.Is(err, store.ErrCompetitionNotFound) {
			http.Error(w, "Competition not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("competition_id", competitionID.String()).Msg("failed to get competition state")
		http.Error(w, "Failed to get competition state", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(m); err != nil {
		log.Error().Err(err).Msg("failed to encode competition state response")
	}
}

func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/competitions/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/state") {
			h.HandleGetCompetitionState(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// extractCompetitionIDFromPath pulls {id} out of /api/competitions/{id}/state.
func extractCompetitionIDFromPath(path string) string {
	const prefix = "/api/competitions/"
	const suffix = "/state"

	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return ""
	}
	if len(path) <= len(prefix)+len(suffix) {
		return ""
	}
	return path[len(prefix) : len(path)-len(suffix)]
}
