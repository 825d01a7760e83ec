package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/draftroom/go/internal/models"
)

// RosterHandler serves league rosters over plain HTTP.
type RosterHandler struct {
	leagues LeaguesApp
}

func NewRosterHandler(leagues LeaguesApp) *RosterHandler {
	return &RosterHandler{leagues: leagues}
}

// HandleGetRoster handles GET /api/leagues/{id}/roster
func (h *RosterHandler) HandleGetRoster(w http.ResponseWriter, r *http.Request) {
	leagueID := chi.URLParam(r, "id")
	roster, err := h.leagues.Roster(r.Context(), leagueID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			http.Error(w, "League not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("league_id", leagueID).Msg("failed to get roster")
		http.Error(w, "Failed to get roster", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(roster); err != nil {
		log.Debug().Err(err).Msg("failed to write roster response")
	}
}

// RegisterRoutes registers the roster route.
func (h *RosterHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/leagues/{id}/roster", h.HandleGetRoster)
}

// RegisterOpsRoutes mounts /health, /ready and /metrics. /health only says the
// process is up; /ready runs checks.
func RegisterOpsRoutes(r chi.Router, gatherer prometheus.Gatherer, checks ...HealthCheck) {
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Debug().Err(err).Msg("failed to write health check response")
		}
	})
	r.Method(http.MethodGet, "/ready", NewReadinessHandler(checks...))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
