package handlers

import (
	"aihq/internal/services"

	"github.com/gofiber/fiber/v2"
)

// MemoryHandler exposes the safe view of persisted memory
type MemoryHandler struct {
	orchestrator *services.OrchestratorService
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(orchestrator *services.OrchestratorService) *MemoryHandler {
	return &MemoryHandler{orchestrator: orchestrator}
}

// Show returns the rolling summary and a conversation count. Raw conversation
// content is never returned, so stored prompts cannot leak through this
// endpoint.
func (h *MemoryHandler) Show(c *fiber.Ctx) error {
	return c.JSON(h.orchestrator.MemoryView())
}
