package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"aihq/internal/logging"
	"aihq/internal/models"

	"github.com/google/uuid"
)

// Gateway is the provider call surface the orchestrator composes over.
type Gateway interface {
	GenerateText(ctx context.Context, prompt, kind string) (string, error)
	GenerateTrend(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (*models.ImageResult, error)
	VerifyIdentity(ctx context.Context, userData map[string]any) (*models.VerificationResult, error)
}

// OrchestratorService composes gateway calls into the chat, propose/approve
// and multi-provider workflow flows. It owns the consent gate for memory
// writes and the approval gate for code staging.
type OrchestratorService struct {
	gateway   Gateway
	memory    *MemoryStore
	proposals *ProposalService
	metrics   *Metrics
}

// NewOrchestratorService creates the orchestration engine.
func NewOrchestratorService(gateway Gateway, memory *MemoryStore, proposals *ProposalService, metrics *Metrics) *OrchestratorService {
	return &OrchestratorService{
		gateway:   gateway,
		memory:    memory,
		proposals: proposals,
		metrics:   metrics,
	}
}

// Chat runs one conversational turn. The prompt embeds the rolling memory
// summary; the turn is appended to history. Persisted memory is only mutated
// when the user consented via allowLearn, and the write happens after the
// response is already on its way (fire-and-forget).
func (s *OrchestratorService) Chat(ctx context.Context, userID, prompt string, allowLearn bool) (string, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.ChatRequests.Inc()
		defer func() {
			s.metrics.ChatRequestLatency.Observe(time.Since(start).Seconds())
		}()
	}

	memory := s.memory.Read()

	fullPrompt := fmt.Sprintf("Memory:\n%s\n\nUser: %s\nAssistant:", memory.Summary, prompt)
	response, err := s.gateway.GenerateText(ctx, fullPrompt, models.ProviderKindChat)
	if err != nil {
		return "", err
	}

	memory.AppendTurn(prompt, response)

	if allowLearn {
		s.learn(ctx, userID, prompt, memory)
	}

	return response, nil
}

// learn appends a one-line summary of the turn to the rolling summary and
// schedules the memory write. The chat response has already succeeded by the
// time this runs, so failures here are logged and absorbed, never surfaced.
func (s *OrchestratorService) learn(ctx context.Context, userID, prompt string, memory models.MemoryDocument) {
	summary, err := s.gateway.GenerateText(ctx, "Summarize in one line: "+prompt, models.ProviderKindChat)
	if err != nil {
		log.Printf("⚠️  [CHAT] Learning step failed for user %s (response unaffected): %v", userID, err)
		return
	}

	memory.AppendSummary(strings.TrimSpace(summary))

	// Detached write: the response path never waits on persistence.
	go s.memory.Write(memory)
}

// ProposeUpgrade asks the chat provider to draft a new skill under explicit
// safety constraints and records it in the ledger as awaiting approval.
func (s *OrchestratorService) ProposeUpgrade(ctx context.Context, userID, prompt string) (string, error) {
	draftPrompt := fmt.Sprintf(
		"You are a software engineer. Draft a safe Go package that provides: %s\n\n"+
			"Include: function signature, brief doc comment, example usage. "+
			"Keep code minimal and safe (no network calls, no shell execution).", prompt)

	code, err := s.gateway.GenerateText(ctx, draftPrompt, models.ProviderKindChat)
	if err != nil {
		return "", err
	}

	id, err := s.proposals.Propose(userID, prompt, code)
	if err != nil {
		return "", err
	}

	if s.metrics != nil {
		s.metrics.Proposals.WithLabelValues(models.ProposalStatusProposed).Inc()
	}
	return id, nil
}

// ApproveUpgrade applies the human decision on a proposal. Staging is the
// maximum effect; nothing is deployed or executed.
func (s *OrchestratorService) ApproveUpgrade(id string, approve bool) (*models.ApproveResult, error) {
	result, err := s.proposals.Approve(id, approve)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Proposals.WithLabelValues(result.Status).Inc()
	}
	return result, nil
}

// RunWorkflow executes the fixed-order multi-provider pipeline:
// analysis, trend check, conditional image generation, conditional identity
// verification, marketing copy. Required steps surface their errors; the
// best-effort steps degrade to inline error payloads. Every dispatched step
// is awaited before the next one starts.
func (s *OrchestratorService) RunWorkflow(ctx context.Context, req models.WorkflowRequest) (*models.WorkflowResult, error) {
	runID := uuid.NewString()
	logger := logging.WithWorkflow(runID, req.UserID)
	logger.Info("workflow started", "workflow", req.Workflow)

	if s.metrics != nil {
		s.metrics.WorkflowRuns.Inc()
	}

	result := &models.WorkflowResult{RunID: runID}

	// 1. Business analysis (required).
	analysis, err := s.gateway.GenerateText(ctx, fmt.Sprintf(
		"You are an expert business advisor. User asked: %s\n"+
			"Produce: summary, 3 business ideas, estimated costs, recommended AI tools to execute, next actions.",
		req.Prompt), models.ProviderKindChat)
	if err != nil {
		logger.Error("analysis step failed", "error", err)
		return nil, err
	}
	result.Analysis = analysis

	// 2. Trend check (best-effort, never aborts the run).
	if trend, err := s.gateway.GenerateTrend(ctx, req.Prompt); err != nil {
		logger.Warn("trend check degraded", "error", err)
		result.TrendCheck = &models.StepResult{Error: err.Error()}
	} else {
		result.TrendCheck = &models.StepResult{Text: trend}
	}

	// 3. Image generation, only when visuals were asked for.
	if wantsLogo(req.Prompt, req.Workflow) {
		image, err := s.gateway.GenerateImage(ctx, "Logo design for: "+req.Prompt)
		var cfgErr *ConfigError
		switch {
		case err == nil:
			result.Image = image
		case errors.As(err, &cfgErr):
			logger.Warn("image step degraded", "error", err)
			result.Image = &models.ImageResult{Error: err.Error()}
		default:
			logger.Error("image step failed", "error", err)
			return nil, err
		}
	}

	// 4. Identity verification, only when an identity document is present.
	if hasIdentityFields(req.UserData) {
		verification, err := s.gateway.VerifyIdentity(ctx, req.UserData)
		var cfgErr *ConfigError
		switch {
		case err == nil:
			result.Verification = verification
		case errors.As(err, &cfgErr):
			logger.Warn("verification step degraded", "error", err)
			result.Verification = &models.VerificationResult{Error: err.Error()}
		default:
			logger.Error("verification step failed", "error", err)
			return nil, err
		}
	}

	// 5. Marketing copy (required).
	marketing, err := s.gateway.GenerateText(ctx,
		"Create a 30s ad script, 3 social captions, and 5 hashtags for: "+req.Prompt,
		models.ProviderKindChat)
	if err != nil {
		logger.Error("marketing step failed", "error", err)
		return nil, err
	}
	result.Marketing = marketing

	logger.Info("workflow completed")
	return result, nil
}

// MemoryView returns the safe external view of memory: the rolling summary
// and a turn count, never raw conversation content.
func (s *OrchestratorService) MemoryView() models.MemoryView {
	memory := s.memory.Read()
	return models.MemoryView{
		Summary:            memory.Summary,
		ConversationsCount: len(memory.Conversations),
	}
}

func wantsLogo(prompt, workflow string) bool {
	return strings.Contains(strings.ToLower(prompt), "logo") ||
		strings.Contains(strings.ToLower(workflow), "logo")
}

func hasIdentityFields(userData map[string]any) bool {
	if userData == nil {
		return false
	}
	_, hasNumber := userData["id_number"]
	_, hasImage := userData["id_image"]
	return hasNumber || hasImage
}
