package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// StateProvider interface defines methods for retrieving draft state
type StateProvider interface {
	DraftState(ctx context.Context, draftID, participantID string) (models.DraftState, error)
	ActiveDrafts(ctx context.Context) []models.DraftSummary
}

// StateHandler serves the draft read model over plain HTTP for clients that
// poll instead of holding a socket.
type StateHandler struct {
	stateProvider StateProvider
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{
		stateProvider: provider,
	}
}

// HandleGetDraftState handles GET /api/drafts/{id}/state
func (h *StateHandler) HandleGetDraftState(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "id")
	if draftID == "" {
		http.Error(w, "Draft ID is required", http.StatusBadRequest)
		return
	}

	state, err := h.stateProvider.DraftState(r.Context(), draftID, r.URL.Query().Get("participant_id"))
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			http.Error(w, "Draft not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("draft_id", draftID).Msg("failed to get draft state")
		http.Error(w, "Failed to get draft state", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// HandleGetActiveDrafts handles GET /api/drafts/active
func (h *StateHandler) HandleGetActiveDrafts(w http.ResponseWriter, r *http.Request) {
	drafts := h.stateProvider.ActiveDrafts(r.Context())
	if drafts == nil {
		drafts = []models.DraftSummary{}
	}
	writeJSON(w, http.StatusOK, drafts)
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(r chi.Router) {
	r.Get("/api/drafts/active", h.HandleGetActiveDrafts)
	r.Get("/api/drafts/{id}/state", h.HandleGetDraftState)
}
