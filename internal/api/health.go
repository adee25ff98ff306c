package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 5 * time.Second

// Health returns the health status of the API and its dependencies.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{"api": "ok"}
	status := map[string]interface{}{
		"status":   "healthy",
		"checks":   checks,
		"sessions": h.orch.Sessions().Len(),
	}
	statusCode := http.StatusOK

	switch {
	case h.backend == nil:
		checks["generator"] = "none"
	default:
		checks["generator"] = h.backend.Name()
		if hr, ok := h.backend.(healthReporter); ok && !hr.Healthy() {
			slog.Warn("Generator unhealthy", "backend", h.backend.Name())
			checks["generator"] = "unreachable"
			status["status"] = "degraded"
		}
	}

	if degraded := h.orch.Roster().Degraded(); len(degraded) > 0 {
		status["degraded_personas"] = degraded
		status["status"] = "degraded"
	}

	switch {
	case h.archive == nil:
		checks["archive"] = "disabled"
	default:
		if err := h.archive.Ping(ctx); err != nil {
			slog.Error("Health check failed", "error", err)
			checks["archive"] = "unreachable"
			status["status"] = "degraded"
			statusCode = http.StatusServiceUnavailable
		} else {
			checks["archive"] = "ok"
		}
	}

	JSON(w, statusCode, status)
}
