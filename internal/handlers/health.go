package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sptool/studioauth/pkg/utils"
)

// Pinger is implemented by backing services that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints for monitoring and
// orchestration: a simple liveness check and a readiness check that verifies
// connectivity to whichever backends are configured. With the memory store
// there are no backends and readiness degenerates to liveness.
type HealthHandler struct {
	backends map[string]Pinger
}

// NewHealthHandler creates a health handler over the configured backends,
// keyed by display name.
//
// Example:
//
//	healthHandler := handlers.NewHealthHandler(map[string]handlers.Pinger{
//	    "redis": redisDB,
//	})
//	r.Get("/health", healthHandler.Health)
//	r.Get("/ready", healthHandler.Ready)
func NewHealthHandler(backends map[string]Pinger) *HealthHandler {
	return &HealthHandler{backends: backends}
}

// HealthResponse represents the health check response structure, used by
// both the basic health check and the readiness check.
//
// JSON example:
//
//	{
//	  "status": "ok",
//	  "timestamp": "2026-08-30T14:30:00Z",
//	  "services": {
//	    "redis": "healthy"
//	  }
//	}
type HealthResponse struct {
	Status    string            `json:"status"`             // Overall status: "ok" or "degraded"
	Timestamp time.Time         `json:"timestamp"`          // Current server time
	Services  map[string]string `json:"services,omitempty"` // Individual backend health (readiness only)
}

// Health returns a simple liveness check. It only reports that the process
// is alive; use Ready for dependency checks.
//
// Kubernetes liveness probe example:
//
//	livenessProbe:
//	  httpGet:
//	    path: /health
//	    port: 8080
//	  periodSeconds: 30
//
// @Summary      Health check (liveness probe)
// @Description  Returns 200 OK if the service is running. Does not check dependencies.
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse  "Service is alive"
// @Router       /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
	})
}

// Ready checks whether the service is ready to accept traffic by pinging
// every configured backend. Returns 200 OK when all are healthy, or 503
// Service Unavailable when any is down. Checks have a 5-second timeout to
// prevent hanging probes.
//
// @Summary      Readiness check
// @Description  Checks connectivity to the configured storage backends.
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse  "All backends healthy"
// @Failure      503  {object}  HealthResponse  "One or more backends unhealthy"
// @Router       /ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string)
	allHealthy := true

	for name, backend := range h.backends {
		if err := backend.Ping(ctx); err != nil {
			log.Error().Err(err).Str("backend", name).Msg("Health check failed")
			services[name] = "unhealthy"
			allHealthy = false
		} else {
			services[name] = "healthy"
		}
	}

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Services:  services,
	}

	statusCode := http.StatusOK
	if !allHealthy {
		response.Status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	utils.RespondWithJSON(w, r, statusCode, response)
}
