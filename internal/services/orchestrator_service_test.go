package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"aihq/internal/crypto"
	"aihq/internal/models"
)

// stubGateway scripts provider behavior per capability for orchestrator tests.
type stubGateway struct {
	textCalls   int32
	textFn      func(prompt, kind string) (string, error)
	trendFn     func(prompt string) (string, error)
	imageFn     func(prompt string) (*models.ImageResult, error)
	verifyFn    func(userData map[string]any) (*models.VerificationResult, error)
	lastPrompts []string
}

func (s *stubGateway) GenerateText(_ context.Context, prompt, kind string) (string, error) {
	atomic.AddInt32(&s.textCalls, 1)
	s.lastPrompts = append(s.lastPrompts, prompt)
	if s.textFn != nil {
		return s.textFn(prompt, kind)
	}
	return "stub response", nil
}

func (s *stubGateway) GenerateTrend(_ context.Context, prompt string) (string, error) {
	if s.trendFn != nil {
		return s.trendFn(prompt)
	}
	return "stub trend", nil
}

func (s *stubGateway) GenerateImage(_ context.Context, prompt string) (*models.ImageResult, error) {
	if s.imageFn != nil {
		return s.imageFn(prompt)
	}
	return &models.ImageResult{Provider: "stub", Output: "image-url"}, nil
}

func (s *stubGateway) VerifyIdentity(_ context.Context, userData map[string]any) (*models.VerificationResult, error) {
	if s.verifyFn != nil {
		return s.verifyFn(userData)
	}
	return &models.VerificationResult{Status: "ok"}, nil
}

func newTestOrchestrator(t *testing.T, gateway Gateway) (*OrchestratorService, *MemoryStore, string) {
	t.Helper()
	dir := t.TempDir()
	memoryFile := filepath.Join(dir, "memory.enc")
	memory := NewMemoryStore(memoryFile, crypto.NewInsecureDevService())
	proposals := NewProposalService(filepath.Join(dir, "proposals.json"), filepath.Join(dir, "staging"), false)
	return NewOrchestratorService(gateway, memory, proposals, nil), memory, memoryFile
}

// waitForFile polls for a fire-and-forget write to land on disk.
func waitForFile(path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestChat_WithoutConsentNeverWrites(t *testing.T) {
	gateway := &stubGateway{}
	orch, _, memoryFile := newTestOrchestrator(t, gateway)

	response, err := orch.Chat(context.Background(), "user-1", "hello", false)
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if response != "stub response" {
		t.Errorf("Unexpected response %q", response)
	}
	if n := atomic.LoadInt32(&gateway.textCalls); n != 1 {
		t.Errorf("Expected 1 gateway call without learning, got %d", n)
	}

	time.Sleep(50 * time.Millisecond)
	if _, err := os.Stat(memoryFile); !os.IsNotExist(err) {
		t.Error("Memory file must not be written without consent")
	}
}

func TestChat_WithConsentPersistsSummary(t *testing.T) {
	gateway := &stubGateway{
		textFn: func(prompt, kind string) (string, error) {
			if strings.HasPrefix(prompt, "Summarize in one line: ") {
				return "  User greeted the assistant.  ", nil
			}
			return "hi!", nil
		},
	}
	orch, memory, memoryFile := newTestOrchestrator(t, gateway)

	if _, err := orch.Chat(context.Background(), "user-1", "hello", true); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if n := atomic.LoadInt32(&gateway.textCalls); n != 2 {
		t.Errorf("Expected 2 gateway calls with learning, got %d", n)
	}
	if !waitForFile(memoryFile, 2*time.Second) {
		t.Fatal("Memory file was never written")
	}

	doc := memory.Read()
	if doc.Summary != "User greeted the assistant." {
		t.Errorf("Expected trimmed summary line, got %q", doc.Summary)
	}
	if len(doc.Conversations) != 1 {
		t.Errorf("Expected 1 recorded turn, got %d", len(doc.Conversations))
	}
}

func TestChat_PromptEmbedsMemorySummary(t *testing.T) {
	gateway := &stubGateway{}
	orch, memory, _ := newTestOrchestrator(t, gateway)

	seed := models.MemoryDocument{Summary: "User runs a bakery."}
	memory.Write(seed)

	if _, err := orch.Chat(context.Background(), "user-1", "hello", false); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	prompt := gateway.lastPrompts[0]
	if !strings.Contains(prompt, "Memory:\nUser runs a bakery.") {
		t.Errorf("Prompt must embed the memory summary, got %q", prompt)
	}
	if !strings.Contains(prompt, "User: hello\nAssistant:") {
		t.Errorf("Prompt must embed the user turn, got %q", prompt)
	}
}

func TestChat_LearnFailureDoesNotAffectResponse(t *testing.T) {
	gateway := &stubGateway{
		textFn: func(prompt, kind string) (string, error) {
			if strings.HasPrefix(prompt, "Summarize") {
				return "", &UpstreamError{Provider: "test-llm", Status: 500, Detail: "down"}
			}
			return "hi!", nil
		},
	}
	orch, _, memoryFile := newTestOrchestrator(t, gateway)

	response, err := orch.Chat(context.Background(), "user-1", "hello", true)
	if err != nil {
		t.Fatalf("Chat must succeed even when learning fails: %v", err)
	}
	if response != "hi!" {
		t.Errorf("Unexpected response %q", response)
	}

	// Failed learning schedules no write.
	time.Sleep(50 * time.Millisecond)
	if _, err := os.Stat(memoryFile); !os.IsNotExist(err) {
		t.Error("Memory file must not be written when learning fails")
	}
}

func TestChat_GatewayErrorSurfaces(t *testing.T) {
	gateway := &stubGateway{
		textFn: func(prompt, kind string) (string, error) {
			return "", &UpstreamError{Provider: "test-llm", Status: 503, Detail: "overloaded"}
		},
	}
	orch, _, _ := newTestOrchestrator(t, gateway)

	_, err := orch.Chat(context.Background(), "user-1", "hello", false)
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
}

func TestProposeUpgrade(t *testing.T) {
	gateway := &stubGateway{
		textFn: func(prompt, kind string) (string, error) {
			return "package skill\n\nfunc Run() {}", nil
		},
	}
	orch, _, _ := newTestOrchestrator(t, gateway)

	id, err := orch.ProposeUpgrade(context.Background(), "user-1", "add a csv parser")
	if err != nil {
		t.Fatalf("ProposeUpgrade failed: %v", err)
	}
	if len(id) != 10 {
		t.Errorf("Expected 10-char proposal id, got %q", id)
	}

	draft := gateway.lastPrompts[0]
	if !strings.Contains(draft, "no network calls, no shell execution") {
		t.Errorf("Draft prompt must carry the safety constraints, got %q", draft)
	}
}

func TestRunWorkflow_BaseSteps(t *testing.T) {
	gateway := &stubGateway{}
	orch, _, _ := newTestOrchestrator(t, gateway)

	result, err := orch.RunWorkflow(context.Background(), models.WorkflowRequest{
		UserID: "user-1",
		Prompt: "open a coffee shop",
	})
	if err != nil {
		t.Fatalf("RunWorkflow failed: %v", err)
	}

	if result.RunID == "" {
		t.Error("Expected a run id")
	}
	if result.Analysis != "stub response" {
		t.Errorf("Unexpected analysis %q", result.Analysis)
	}
	if result.TrendCheck == nil || result.TrendCheck.Text != "stub trend" {
		t.Errorf("Unexpected trend result %+v", result.TrendCheck)
	}
	if result.Marketing != "stub response" {
		t.Errorf("Unexpected marketing %q", result.Marketing)
	}
	if result.Image != nil {
		t.Error("Image step must be skipped without a logo request")
	}
	if result.Verification != nil {
		t.Error("Verification step must be skipped without identity fields")
	}
}

func TestRunWorkflow_LogoTriggersImage(t *testing.T) {
	tests := []struct {
		name string
		req  models.WorkflowRequest
	}{
		{"logo in prompt", models.WorkflowRequest{UserID: "u", Prompt: "design a LOGO for my shop"}},
		{"logo in workflow name", models.WorkflowRequest{UserID: "u", Prompt: "my shop", Workflow: "brand-logo"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &stubGateway{}
			orch, _, _ := newTestOrchestrator(t, gateway)

			result, err := orch.RunWorkflow(context.Background(), tt.req)
			if err != nil {
				t.Fatalf("RunWorkflow failed: %v", err)
			}
			if result.Image == nil {
				t.Fatal("Expected image step to run")
			}
			if result.Image.Output != "image-url" {
				t.Errorf("Unexpected image output %q", result.Image.Output)
			}
		})
	}
}

func TestRunWorkflow_ImageConfigGapDegrades(t *testing.T) {
	gateway := &stubGateway{
		imageFn: func(prompt string) (*models.ImageResult, error) {
			return nil, &ConfigError{Provider: "image", Reason: "no enabled provider registered"}
		},
	}
	orch, _, _ := newTestOrchestrator(t, gateway)

	result, err := orch.RunWorkflow(context.Background(), models.WorkflowRequest{
		UserID: "u",
		Prompt: "logo for my shop",
	})
	if err != nil {
		t.Fatalf("Config gap on image step must not abort the run: %v", err)
	}
	if result.Image == nil || result.Image.Error == "" {
		t.Errorf("Expected inline image error payload, got %+v", result.Image)
	}
}

func TestRunWorkflow_ImageUpstreamFailureAborts(t *testing.T) {
	gateway := &stubGateway{
		imageFn: func(prompt string) (*models.ImageResult, error) {
			return nil, &UpstreamError{Provider: "image", Status: 500, Detail: "boom"}
		},
	}
	orch, _, _ := newTestOrchestrator(t, gateway)

	_, err := orch.RunWorkflow(context.Background(), models.WorkflowRequest{
		UserID: "u",
		Prompt: "logo for my shop",
	})
	if err == nil {
		t.Fatal("Upstream failure on a dispatched image step must abort the run")
	}
}

func TestRunWorkflow_IdentityFieldsTriggersVerification(t *testing.T) {
	for _, field := range []string{"id_number", "id_image"} {
		t.Run(field, func(t *testing.T) {
			gateway := &stubGateway{}
			orch, _, _ := newTestOrchestrator(t, gateway)

			result, err := orch.RunWorkflow(context.Background(), models.WorkflowRequest{
				UserID:   "u",
				Prompt:   "verify me",
				UserData: map[string]any{field: "X123"},
			})
			if err != nil {
				t.Fatalf("RunWorkflow failed: %v", err)
			}
			if result.Verification == nil || result.Verification.Status != "ok" {
				t.Errorf("Expected verification step to run, got %+v", result.Verification)
			}
		})
	}
}

func TestRunWorkflow_VerificationConfigGapDegrades(t *testing.T) {
	gateway := &stubGateway{
		verifyFn: func(userData map[string]any) (*models.VerificationResult, error) {
			return nil, &ConfigError{Provider: "verify", Reason: "API key not set"}
		},
	}
	orch, _, _ := newTestOrchestrator(t, gateway)

	result, err := orch.RunWorkflow(context.Background(), models.WorkflowRequest{
		UserID:   "u",
		Prompt:   "verify me",
		UserData: map[string]any{"id_number": "X123"},
	})
	if err != nil {
		t.Fatalf("Config gap on verification must not abort the run: %v", err)
	}
	if result.Verification == nil || result.Verification.Error == "" {
		t.Errorf("Expected inline verification error payload, got %+v", result.Verification)
	}
}

func TestRunWorkflow_TrendFailureDegrades(t *testing.T) {
	gateway := &stubGateway{
		trendFn: func(prompt string) (string, error) {
			return "", &UpstreamError{Provider: "trend", Status: 502, Detail: "bad gateway"}
		},
	}
	orch, _, _ := newTestOrchestrator(t, gateway)

	result, err := orch.RunWorkflow(context.Background(), models.WorkflowRequest{
		UserID: "u",
		Prompt: "open a coffee shop",
	})
	if err != nil {
		t.Fatalf("Trend failure must not abort the run: %v", err)
	}
	if result.TrendCheck == nil || result.TrendCheck.Error == "" {
		t.Errorf("Expected inline trend error payload, got %+v", result.TrendCheck)
	}
}

func TestRunWorkflow_AnalysisFailureAborts(t *testing.T) {
	gateway := &stubGateway{
		textFn: func(prompt, kind string) (string, error) {
			return "", &UpstreamError{Provider: "test-llm", Status: 503, Detail: "down"}
		},
	}
	orch, _, _ := newTestOrchestrator(t, gateway)

	_, err := orch.RunWorkflow(context.Background(), models.WorkflowRequest{UserID: "u", Prompt: "anything"})
	if err == nil {
		t.Fatal("Analysis failure must abort the run")
	}
}

func TestMemoryView(t *testing.T) {
	gateway := &stubGateway{}
	orch, memory, _ := newTestOrchestrator(t, gateway)

	doc := models.MemoryDocument{Summary: "the summary"}
	doc.AppendTurn("q1", "a1")
	doc.AppendTurn("q2", "a2")
	memory.Write(doc)

	view := orch.MemoryView()
	if view.Summary != "the summary" {
		t.Errorf("Unexpected summary %q", view.Summary)
	}
	if view.ConversationsCount != 2 {
		t.Errorf("Expected 2 turns, got %d", view.ConversationsCount)
	}
}
