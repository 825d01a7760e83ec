package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for draft connections
type WebSocketHandler struct {
	hub      *Hub
	resolver RoomResolver
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *Hub, resolver RoomResolver) *WebSocketHandler {
	return &WebSocketHandler{
		hub:      hub,
		resolver: resolver,
	}
}

// HandleDraftConnection handles GET /ws/draft?draft_id=...&participant_id=...
func (h *WebSocketHandler) HandleDraftConnection(w http.ResponseWriter, r *http.Request) {
	draftID := r.URL.Query().Get("draft_id")
	if draftID == "" {
		http.Error(w, "draft_id is required", http.StatusBadRequest)
		return
	}
	// Identity comes from the caller; authentication sits in front of this service.
	participantID := r.URL.Query().Get("participant_id")
	if participantID == "" {
		http.Error(w, "participant_id is required", http.StatusBadRequest)
		return
	}

	room, err := h.resolver.Room(r.Context(), draftID)
	if err != nil {
		if errors.Is(err, ErrDraftNotFound) {
			http.Error(w, "draft not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("draft_id", draftID).Msg("failed to resolve draft room")
		http.Error(w, "failed to load draft", http.StatusInternalServerError)
		return
	}

	conn, err := h.hub.Upgrade(w, r)
	if err != nil {
		log.Warn().
			Err(err).
			Str("draft_id", draftID).
			Str("participant_id", participantID).
			Msg("failed to upgrade WebSocket connection")
		return
	}

	if _, err := h.hub.Join(r.Context(), draftID, room, conn, participantID); err != nil {
		log.Warn().
			Err(err).
			Str("draft_id", draftID).
			Str("participant_id", participantID).
			Msg("failed to join draft room")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.GetConnectionStats())
}

// RegisterRoutes registers WebSocket routes on the router
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/draft", h.HandleDraftConnection)
	r.Get("/ws/stats", h.HandleConnectionStats)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
