package health

import (
	"sort"
	"sync"
	"time"

	"aihq/internal/models"
)

// Service tracks last-known health per provider. Status is fed from live
// gateway outcomes and from the periodic probe job; it is advisory only and
// never blocks a call.
type Service struct {
	mu       sync.RWMutex
	statuses map[string]models.ProviderStatus // keyed by provider name
}

// NewService creates an empty health tracker.
func NewService() *Service {
	return &Service{statuses: make(map[string]models.ProviderStatus)}
}

// MarkHealthy records a successful interaction with a provider.
func (s *Service) MarkHealthy(name, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[name] = models.ProviderStatus{
		Name:        name,
		Kind:        kind,
		Healthy:     true,
		LastChecked: time.Now().Format(time.RFC3339),
	}
}

// MarkUnhealthy records a failed interaction with a provider.
func (s *Service) MarkUnhealthy(name, kind, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[name] = models.ProviderStatus{
		Name:        name,
		Kind:        kind,
		Healthy:     false,
		LastError:   errMsg,
		LastChecked: time.Now().Format(time.RFC3339),
	}
}

// Snapshot returns the current statuses sorted by provider name.
func (s *Service) Snapshot() []models.ProviderStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ProviderStatus, 0, len(s.statuses))
	for _, status := range s.statuses {
		out = append(out, status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
