package domainctx

import (
	"context"
	"fmt"
	"sync"

	"paygrid/pkg/domain"
	"paygrid/pkg/platform/sentinel"
)

// InMemory is the process-local Store used by single-instance deployments and
// tests. No automatic expiry: a caller that forgets Clear leaks the entry.
type InMemory struct {
	mu       sync.RWMutex
	contexts map[domain.RequestID]Context
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{contexts: make(map[domain.RequestID]Context)}
}

// Put stores or replaces the context for its request ID. Last write wins.
func (s *InMemory) Put(_ context.Context, rc Context) error {
	if rc.RequestID.IsNil() {
		return fmt.Errorf("put context: empty request id: %w", sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[rc.RequestID] = rc
	return nil
}

// Get returns the stored context for id.
func (s *InMemory) Get(_ context.Context, id domain.RequestID) (Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rc, ok := s.contexts[id]
	if !ok {
		return Context{}, fmt.Errorf("context for request %q: %w", id, sentinel.ErrNotFound)
	}
	return rc, nil
}

// Clear removes the context for id. Clearing an absent id is a no-op.
func (s *InMemory) Clear(_ context.Context, id domain.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contexts, id)
	return nil
}

// ByDomain returns a snapshot of all live contexts executing in d.
func (s *InMemory) ByDomain(_ context.Context, d domain.Name) ([]Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var matched []Context
	for _, rc := range s.contexts {
		if rc.Domain == d {
			matched = append(matched, rc)
		}
	}
	return matched, nil
}

// Len reports the number of live contexts, for gauges and leak checks.
func (s *InMemory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contexts)
}
