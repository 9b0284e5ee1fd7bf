package services

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"aihq/internal/models"
)

// StagedFileDisclaimer prefixes every staged skill so a reviewer can never
// mistake it for vetted code.
const StagedFileDisclaimer = "// Auto-generated skill - review before enabling\n"

// ProposalService is the ledger of assistant-drafted skill proposals and the
// staging area for approved ones. The ledger file is plaintext JSON: unlike
// memory it is not encrypted at rest, a deliberate gap inherited from the
// original design and flagged in the README.
//
// Staging is the maximum effect this service may have on the running system.
// AllowAutoDeploy is accepted for interface completeness but intentionally
// triggers nothing further.
type ProposalService struct {
	ledgerFile      string
	stagingDir      string
	allowAutoDeploy bool
	mu              sync.Mutex // single writer per backing store
}

// NewProposalService creates a proposal service.
func NewProposalService(ledgerFile, stagingDir string, allowAutoDeploy bool) *ProposalService {
	return &ProposalService{
		ledgerFile:      ledgerFile,
		stagingDir:      stagingDir,
		allowAutoDeploy: allowAutoDeploy,
	}
}

// ProposalID computes the content fingerprint for a proposal: identical
// (userID, prompt, code) always maps to the same id, which is the dedup
// mechanism, not an error.
func ProposalID(userID, prompt, code string) string {
	sum := sha1.Sum([]byte(userID + prompt + code))
	return hex.EncodeToString(sum[:])[:10]
}

// List loads the full ledger. A missing or corrupt backing file yields an
// empty ledger (logged, never surfaced).
func (s *ProposalService) List() map[string]models.Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// load reads the ledger file. Callers must hold s.mu.
func (s *ProposalService) load() map[string]models.Proposal {
	proposals := make(map[string]models.Proposal)

	data, err := os.ReadFile(s.ledgerFile)
	if os.IsNotExist(err) {
		return proposals
	}
	if err != nil {
		log.Printf("⚠️  [PROPOSALS] Ledger read failed, starting empty: %v", err)
		return proposals
	}

	if err := json.Unmarshal(data, &proposals); err != nil {
		log.Printf("⚠️  [PROPOSALS] Ledger parse failed, starting empty: %v", err)
		return make(map[string]models.Proposal)
	}

	return proposals
}

// save overwrites the ledger file with a pretty-printed encoding.
// Callers must hold s.mu.
func (s *ProposalService) save(proposals map[string]models.Proposal) error {
	data, err := json.MarshalIndent(proposals, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	if err := os.WriteFile(s.ledgerFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}

	return nil
}

// Propose inserts (or idempotently overwrites) a Proposed record and returns
// its fingerprint id.
func (s *ProposalService) Propose(userID, prompt, code string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposals := s.load()

	id := ProposalID(userID, prompt, code)
	proposals[id] = models.Proposal{
		UserID:   userID,
		Prompt:   prompt,
		Code:     code,
		Approved: false,
	}

	if err := s.save(proposals); err != nil {
		return "", err
	}

	log.Printf("📝 [PROPOSALS] Recorded proposal %s for user %s", id, userID)
	return id, nil
}

// Approve applies the human decision for a proposal id.
//
// approve=false marks the proposal rejected (idempotent, no file is ever
// created). approve=true stages the code under the staging directory with a
// disclaimer header and records the staged path; re-approving an already
// staged proposal rewrites the same file.
func (s *ProposalService) Approve(id string, approve bool) (*models.ApproveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proposals := s.load()

	p, ok := proposals[id]
	if !ok {
		return nil, ErrProposalNotFound
	}

	if !approve {
		p.Approved = false
		proposals[id] = p
		if err := s.save(proposals); err != nil {
			return nil, err
		}
		log.Printf("🚫 [PROPOSALS] Proposal %s rejected", id)
		return &models.ApproveResult{Status: models.ProposalStatusRejected}, nil
	}

	if err := os.MkdirAll(s.stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	stagedFile := filepath.Join(s.stagingDir, fmt.Sprintf("skill_%s.go", id))
	content := StagedFileDisclaimer + p.Code
	if err := os.WriteFile(stagedFile, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("failed to stage skill: %w", err)
	}

	p.Approved = true
	p.StagedFile = stagedFile
	proposals[id] = p
	if err := s.save(proposals); err != nil {
		return nil, err
	}

	if s.allowAutoDeploy {
		// Deployment beyond staging is deliberately not implemented.
		log.Printf("⚠️  [PROPOSALS] ALLOW_AUTO_DEPLOY is set but auto-deployment is disabled; %s staged for manual review", stagedFile)
	}

	log.Printf("✅ [PROPOSALS] Proposal %s staged at %s", id, stagedFile)
	return &models.ApproveResult{Status: models.ProposalStatusStaged, StagedFile: stagedFile}, nil
}
