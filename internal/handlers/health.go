package handlers

import (
	"time"

	"aihq/internal/health"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	healthService *health.Service
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(healthService *health.Service) *HealthHandler {
	return &HealthHandler{healthService: healthService}
}

// Handle responds with server health status and the last-known provider
// statuses.
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"providers": h.healthService.Snapshot(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
