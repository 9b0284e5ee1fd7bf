package handlers

import (
	"aihq/internal/models"
	"aihq/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ChatHandler handles conversational requests
type ChatHandler struct {
	orchestrator *services.OrchestratorService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(orchestrator *services.OrchestratorService) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

// Handle runs one chat turn. Memory is only mutated when the request carries
// allow_learn=true (user consent).
func (h *ChatHandler) Handle(c *fiber.Ctx) error {
	var req models.ChatRequest
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
	if req.UserID == "" {
		req.UserID = "default"
	}

	response, err := h.orchestrator.Chat(c.Context(), req.UserID, req.Prompt, req.AllowLearn)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(models.ChatResponse{Response: response})
}
