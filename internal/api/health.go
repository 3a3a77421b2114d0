package api

import (
	"context"
	"time"

	"github.com/Egham-7/consizen-proxy/internal/services/cache"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler handles health check requests
type HealthHandler struct {
	cache cache.ResponseCache
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(responseCache cache.ResponseCache) *HealthHandler {
	return &HealthHandler{cache: responseCache}
}

// HealthCheck returns the health status of the service and its cache backend.
// Upstream models are not probed; a failing model is handled by fallback.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	cacheStatus := h.checkCache(c.UserContext())

	overallStatus := "healthy"
	statusCode := fiber.StatusOK

	if cacheStatus != "healthy" {
		overallStatus = "degraded"
		statusCode = fiber.StatusServiceUnavailable
	}

	response := fiber.Map{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks": fiber.Map{
			"cache": cacheStatus,
		},
	}

	return c.Status(statusCode).JSON(response)
}

func (h *HealthHandler) checkCache(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := h.cache.Ping(ctx); err != nil {
		fiberlog.Warnf("Cache health check failed: %v", err)
		return "unhealthy"
	}

	return "healthy"
}
