package models

// WorkflowRequest is the inbound payload for POST /run-workflow.
type WorkflowRequest struct {
	UserID   string         `json:"user_id"`
	Prompt   string         `json:"prompt"`
	UserData map[string]any `json:"user_data,omitempty"`
	Workflow string         `json:"workflow,omitempty"` // name of a pre-defined workflow
}

// StepResult is the normalized outcome of a best-effort workflow step.
// A configuration gap degrades to an inline Error instead of aborting the run.
type StepResult struct {
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// ImageResult references a generated image. A configuration gap on the image
// provider degrades to an inline Error instead of aborting the workflow.
type ImageResult struct {
	Provider string `json:"provider,omitempty"`
	Output   string `json:"output,omitempty"` // provider's raw prediction payload or URL
	Error    string `json:"error,omitempty"`
}

// VerificationResult is the outcome of an identity-verification check.
type VerificationResult struct {
	Status string `json:"status"`
	Score  string `json:"score,omitempty"`
	Error  string `json:"error,omitempty"`
}

// WorkflowResult packages one multi-provider orchestration run. It is never
// persisted; skipped steps stay nil.
type WorkflowResult struct {
	RunID        string              `json:"run_id"`
	Analysis     string              `json:"analysis"`
	TrendCheck   *StepResult         `json:"trend_check,omitempty"`
	Image        *ImageResult        `json:"image,omitempty"`
	Verification *VerificationResult `json:"verification,omitempty"`
	Marketing    string              `json:"marketing"`
}
