package services

import (
	"errors"
	"fmt"
)

// ErrProposalNotFound is returned when an approve/reject references an id that
// was never proposed.
var ErrProposalNotFound = errors.New("proposal not found")

// ConfigError means a required credential or provider registration is absent.
// Callers decide whether this is fatal or degrades to a partial result.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %s not configured: %s", e.Provider, e.Reason)
}

// UpstreamError means a provider call failed after the single fallback
// attempt. Status and Detail carry the provider's last response.
type UpstreamError struct {
	Provider string
	Status   int
	Detail   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("provider %s failed (status %d): %s", e.Provider, e.Status, e.Detail)
}
