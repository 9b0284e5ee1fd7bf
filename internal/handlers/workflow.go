package handlers

import (
	"aihq/internal/models"
	"aihq/internal/services"

	"github.com/gofiber/fiber/v2"
)

// WorkflowHandler handles multi-provider workflow runs
type WorkflowHandler struct {
	orchestrator *services.OrchestratorService
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(orchestrator *services.OrchestratorService) *WorkflowHandler {
	return &WorkflowHandler{orchestrator: orchestrator}
}

// Run executes the analysis/trend/image/verification/marketing pipeline and
// returns the packaged result. Results are never persisted.
func (h *WorkflowHandler) Run(c *fiber.Ctx) error {
	var req models.WorkflowRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "prompt is required",
		})
	}

	result, err := h.orchestrator.RunWorkflow(c.Context(), req)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"status": "ok",
		"result": result,
	})
}
