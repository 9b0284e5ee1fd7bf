package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"aihq/internal/crypto"
	"aihq/internal/models"
)

// MemoryStore persists the conversational memory document encrypted at rest.
// Reads fail open: a missing, unreadable or undecryptable artifact is treated
// as an empty document and logged, never surfaced. Writes are best-effort.
type MemoryStore struct {
	filePath   string
	encryption *crypto.EncryptionService
	mu         sync.Mutex // single writer per backing store
}

// NewMemoryStore creates a memory store backed by the given file.
func NewMemoryStore(filePath string, encryption *crypto.EncryptionService) *MemoryStore {
	return &MemoryStore{filePath: filePath, encryption: encryption}
}

// Read returns the decrypted memory document, or an empty document on any
// failure. The caller can always chat against the result.
func (s *MemoryStore) Read() models.MemoryDocument {
	doc, err := s.read()
	if err != nil {
		log.Printf("⚠️  [MEMORY] Read failed, starting fresh: %v", err)
		return models.MemoryDocument{}
	}
	return doc
}

// read is the fallible half of Read, kept separate so the fail-open mapping
// stays visible and testable.
func (s *MemoryStore) read() (models.MemoryDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc models.MemoryDocument

	data, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return doc, nil // first run, nothing persisted yet
	}
	if err != nil {
		return doc, fmt.Errorf("failed to read memory file: %w", err)
	}

	plaintext, err := s.encryption.Decrypt(string(data))
	if err != nil {
		return doc, fmt.Errorf("failed to decrypt memory file: %w", err)
	}

	if err := json.Unmarshal(plaintext, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse memory document: %w", err)
	}

	return doc, nil
}

// Write serializes, encrypts and atomically replaces the backing file.
// Failures are logged and swallowed; the user-facing response never depends
// on persistence success.
func (s *MemoryStore) Write(doc models.MemoryDocument) {
	if err := s.write(doc); err != nil {
		log.Printf("⚠️  [MEMORY] Write failed (dropped): %v", err)
	}
}

func (s *MemoryStore) write(doc models.MemoryDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal memory document: %w", err)
	}

	encrypted, err := s.encryption.Encrypt(raw)
	if err != nil {
		return fmt.Errorf("failed to encrypt memory document: %w", err)
	}

	// Write to a temp file in the same directory, then rename over the
	// target so readers never observe a partial document.
	dir := filepath.Dir(s.filePath)
	tmp, err := os.CreateTemp(dir, ".memory-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(encrypted); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace memory file: %w", err)
	}

	return nil
}
