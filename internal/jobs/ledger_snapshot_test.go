package jobs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLedgerSnapshot_CopiesLedger(t *testing.T) {
	dir := t.TempDir()
	ledgerFile := filepath.Join(dir, "proposals.json")
	backupDir := filepath.Join(dir, "backups")

	content := []byte(`{"abc1234567":{"user_id":"u","prompt":"p","code":"c","approved":false}}`)
	if err := os.WriteFile(ledgerFile, content, 0o644); err != nil {
		t.Fatalf("Failed to seed ledger: %v", err)
	}

	if err := NewLedgerSnapshot(ledgerFile, backupDir).Run(); err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	target := filepath.Join(backupDir, "proposals-"+time.Now().Format("20060102")+".json")
	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Snapshot file not written: %v", err)
	}
	if string(got) != string(content) {
		t.Error("Snapshot content does not match ledger")
	}
}

func TestLedgerSnapshot_MissingLedgerIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")

	if err := NewLedgerSnapshot(filepath.Join(dir, "nope.json"), backupDir).Run(); err != nil {
		t.Fatalf("Missing ledger must not be an error: %v", err)
	}

	if _, err := os.Stat(backupDir); !os.IsNotExist(err) {
		t.Error("Backup directory must not be created when there is nothing to snapshot")
	}
}

func TestLedgerSnapshot_SameDayOverwrites(t *testing.T) {
	dir := t.TempDir()
	ledgerFile := filepath.Join(dir, "proposals.json")
	backupDir := filepath.Join(dir, "backups")
	snapshot := NewLedgerSnapshot(ledgerFile, backupDir)

	os.WriteFile(ledgerFile, []byte(`{"v":1}`), 0o644)
	if err := snapshot.Run(); err != nil {
		t.Fatalf("First snapshot failed: %v", err)
	}

	os.WriteFile(ledgerFile, []byte(`{"v":2}`), 0o644)
	if err := snapshot.Run(); err != nil {
		t.Fatalf("Second snapshot failed: %v", err)
	}

	target := filepath.Join(backupDir, "proposals-"+time.Now().Format("20060102")+".json")
	got, _ := os.ReadFile(target)
	if string(got) != `{"v":2}` {
		t.Errorf("Expected latest ledger content, got %s", got)
	}
}
