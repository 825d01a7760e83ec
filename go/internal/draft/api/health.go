package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// HealthCheck is one dependency probed by the readiness endpoint.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthStatus is the readiness response body.
type HealthStatus struct {
	Healthy bool              `json:"healthy"`
	Checks  map[string]string `json:"checks"`
	Errors  []string          `json:"errors,omitempty"`
}

// ReadinessHandler runs every check on each request and answers 503 when any
// of them fails.
type ReadinessHandler struct {
	checks  []HealthCheck
	timeout time.Duration
}

func NewReadinessHandler(checks ...HealthCheck) *ReadinessHandler {
	return &ReadinessHandler{checks: checks, timeout: 5 * time.Second}
}

func (h *ReadinessHandler) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	status := HealthStatus{Healthy: true, Checks: make(map[string]string, len(h.checks))}
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			status.Healthy = false
			status.Checks[c.Name] = "failing"
			status.Errors = append(status.Errors, c.Name+": "+err.Error())
			continue
		}
		status.Checks[c.Name] = "ok"
	}
	return status
}

func (h *ReadinessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Debug().Err(err).Msg("failed to write readiness response")
	}
}
