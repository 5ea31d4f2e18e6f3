package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salespulse/internal/services"
)

// HealthHandler serves the probe and version endpoints.
type HealthHandler struct {
	service *services.HealthService
}

func NewHealthHandler(service *services.HealthService) *HealthHandler {
	return &HealthHandler{service: service}
}

// Register mounts the probes on r: /health, /health/ready, /health/live
// and /version.
func (h *HealthHandler) Register(r chi.Router) {
	r.Get("/health", h.probe(h.service.HealthCheck, "ok"))
	r.Get("/health/ready", h.probe(h.service.ReadinessCheck, "ready"))
	r.Get("/health/live", h.probe(h.service.LivenessCheck, "alive"))
	r.Get("/version", h.Version)
}

// probe answers 503 unless check reports the healthy status.
func (h *HealthHandler) probe(check func(context.Context) services.HealthStatus, healthy string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := check(r.Context())
		if status.Status != healthy {
			render.Status(r, http.StatusServiceUnavailable)
		}
		render.JSON(w, r, status)
	}
}

func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}
