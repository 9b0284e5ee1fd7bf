package models

// ChatRequest is the inbound payload for POST /chat.
// AllowLearn is the consent gate: without it a chat turn never mutates
// persisted memory.
type ChatRequest struct {
	UserID     string `json:"user_id"`
	Prompt     string `json:"prompt"`
	AllowLearn bool   `json:"allow_learn"`
}

// ChatResponse carries the assistant's reply.
type ChatResponse struct {
	Response string `json:"response"`
}

// ProposeUpgradeRequest asks the assistant to draft a new skill.
type ProposeUpgradeRequest struct {
	UserID string `json:"user_id"`
	Prompt string `json:"prompt"`
}

// ProposeUpgradeResponse returns the ledger id for the drafted proposal.
type ProposeUpgradeResponse struct {
	ProposalID string `json:"proposal_id"`
	Summary    string `json:"summary"`
}

// ApproveUpgradeRequest is the human-in-the-loop decision on a proposal.
type ApproveUpgradeRequest struct {
	UserID     string `json:"user_id"`
	ProposalID string `json:"proposal_id"`
	Approve    bool   `json:"approve"`
}
