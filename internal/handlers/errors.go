package handlers

import (
	"errors"

	"aihq/internal/services"

	"github.com/gofiber/fiber/v2"
)

// mapServiceError converts service-layer errors into HTTP responses:
// configuration gaps are 503 (the deployment is missing a credential),
// upstream failures are 502 with provider detail, unknown proposals are 404.
func mapServiceError(c *fiber.Ctx, err error) error {
	var cfgErr *services.ConfigError
	if errors.As(err, &cfgErr) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": cfgErr.Error(),
		})
	}

	var upErr *services.UpstreamError
	if errors.As(err, &upErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":    "Provider call failed",
			"provider": upErr.Provider,
			"status":   upErr.Status,
			"detail":   upErr.Detail,
		})
	}

	if errors.Is(err, services.ErrProposalNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Proposal not found",
		})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
