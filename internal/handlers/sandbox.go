package handlers

import (
	"aihq/internal/sandbox"

	"github.com/gofiber/fiber/v2"
)

// SandboxHandler fronts the (disabled) sandbox executor
type SandboxHandler struct {
	executor *sandbox.ExecutorService
}

// NewSandboxHandler creates a new sandbox handler
func NewSandboxHandler(executor *sandbox.ExecutorService) *SandboxHandler {
	return &SandboxHandler{executor: executor}
}

// Run accepts a code payload and unconditionally reports disabled status.
// Nothing is ever executed through this endpoint.
func (h *SandboxHandler) Run(c *fiber.Ctx) error {
	var req sandbox.ExecuteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	return c.JSON(h.executor.Execute(req))
}
