package models

// Proposal outcome states. Staged and Rejected are terminal; re-submitting the
// same terminal action for an id is idempotent.
const (
	ProposalStatusProposed = "proposed"
	ProposalStatusStaged   = "staged"
	ProposalStatusRejected = "rejected"
)

// Proposal is an assistant-drafted candidate skill awaiting human approval.
// The id is a content fingerprint (sha1 of user_id+prompt+code, first 10 hex
// chars), so identical re-submissions dedupe to one ledger entry.
type Proposal struct {
	UserID     string `json:"user_id"`
	Prompt     string `json:"prompt"`
	Code       string `json:"code"`
	Approved   bool   `json:"approved"`
	StagedFile string `json:"staged_file,omitempty"`
}

// ApproveResult is the outcome of an approve/reject decision.
type ApproveResult struct {
	Status     string `json:"status"` // "staged" or "rejected"
	StagedFile string `json:"file,omitempty"`
}
