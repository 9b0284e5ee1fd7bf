package handlers

import (
	"aihq/internal/models"
	"aihq/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProposalHandler handles the skill-upgrade proposal lifecycle
type ProposalHandler struct {
	orchestrator *services.OrchestratorService
	proposals    *services.ProposalService
}

// NewProposalHandler creates a new proposal handler
func NewProposalHandler(orchestrator *services.OrchestratorService, proposals *services.ProposalService) *ProposalHandler {
	return &ProposalHandler{orchestrator: orchestrator, proposals: proposals}
}

// Propose asks the assistant to draft a new skill and records the proposal
// for human approval.
func (h *ProposalHandler) Propose(c *fiber.Ctx) error {
	var req models.ProposeUpgradeRequest
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

	id, err := h.orchestrator.ProposeUpgrade(c.Context(), req.UserID, req.Prompt)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(models.ProposeUpgradeResponse{ProposalID: id, Summary: req.Prompt})
}

// Approve applies the human decision on a proposal: reject, or stage the
// drafted code for manual review. Never deploys or executes anything.
func (h *ProposalHandler) Approve(c *fiber.Ctx) error {
	var req models.ApproveUpgradeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.ProposalID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "proposal_id is required",
		})
	}

	result, err := h.orchestrator.ApproveUpgrade(req.ProposalID, req.Approve)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(result)
}

// List returns the full proposal ledger.
func (h *ProposalHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.proposals.List())
}
