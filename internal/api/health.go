package api

import (
	"net/http"
	"time"

	"github.com/krishisahai/sahai/internal/api/respond"
)

// HealthHandler reports aggregate service health. The health function is
// injected at wiring time; no process-global state.
type HealthHandler struct {
	isHealthy func() bool
}

func NewHealthHandler(isHealthy func() bool) *HealthHandler {
	return &HealthHandler{isHealthy: isHealthy}
}

// CheckHealth handles GET /v0/health. Always 200; the body carries the
// healthy/unhealthy verdict.
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	status := "unhealthy"
	if h.isHealthy != nil && h.isHealthy() {
		status = "healthy"
	}
	respond.WriteJSON(w, http.StatusOK, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
