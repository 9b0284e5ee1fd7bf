package jobs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// LedgerSnapshot copies the proposal ledger into a dated backup file. The
// ledger is small plaintext JSON; a daily copy is enough to recover from a
// corrupted or accidentally truncated file.
type LedgerSnapshot struct {
	ledgerFile string
	backupDir  string
}

// NewLedgerSnapshot creates the snapshot job.
func NewLedgerSnapshot(ledgerFile, backupDir string) *LedgerSnapshot {
	return &LedgerSnapshot{ledgerFile: ledgerFile, backupDir: backupDir}
}

// Run copies the current ledger to <backupDir>/proposals-YYYYMMDD.json.
// A missing ledger (nothing proposed yet) is not an error.
func (j *LedgerSnapshot) Run() error {
	data, err := os.ReadFile(j.ledgerFile)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read ledger: %w", err)
	}

	if err := os.MkdirAll(j.backupDir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	target := filepath.Join(j.backupDir, fmt.Sprintf("proposals-%s.json", time.Now().Format("20060102")))
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	log.Printf("💾 [JOBS] Ledger snapshot written to %s", target)
	return nil
}
