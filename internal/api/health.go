package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/easyonboard/easyonboard/internal/queue"
	"github.com/easyonboard/easyonboard/pkg/metrics"
	"github.com/easyonboard/easyonboard/pkg/resilience"
)

// HealthHandler reports the availability of every remote dependency
type HealthHandler struct {
	handles map[string]*resilience.Handle
	redis   *queue.RedisClient
	metrics *metrics.Metrics
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(handles map[string]*resilience.Handle, redis *queue.RedisClient, m *metrics.Metrics) *HealthHandler {
	return &HealthHandler{
		handles: handles,
		redis:   redis,
		metrics: m,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Checks    map[string]HealthCheck `json:"checks"`
}

// HealthCheck represents an individual dependency check
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Handle serves the health check. Dependency handles report their sticky
// state without probing the remote service; only Redis is pinged live.
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Checks:    make(map[string]HealthCheck),
	}

	for name, handle := range h.handles {
		state := handle.State()
		if h.metrics != nil {
			h.metrics.UpdateDependencyState(name, state)
		}

		switch state {
		case resilience.StateAvailable:
			response.Checks[name] = HealthCheck{Status: "healthy"}
		case resilience.StateDisabled:
			response.Checks[name] = HealthCheck{
				Status:  "disabled",
				Message: "feature flag is off",
			}
		case resilience.StateUnreachable:
			response.Status = "degraded"
			response.Checks[name] = HealthCheck{
				Status:  "unhealthy",
				Message: "client is unreachable",
			}
		}
	}

	if h.redis != nil {
		if err := h.redis.Health(ctx); err != nil {
			response.Status = "degraded"
			response.Checks["redis"] = HealthCheck{
				Status:  "unhealthy",
				Message: err.Error(),
			}
		} else {
			response.Checks["redis"] = HealthCheck{Status: "healthy"}
		}
	}

	// Degraded dependencies do not fail the probe; the API keeps serving
	// with fallbacks, so only the process itself can be unhealthy.
	c.JSON(http.StatusOK, response)
}
