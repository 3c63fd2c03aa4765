package audit

import (
	"context"
	"sync"
)

// MemoryStorage keeps events in process. Useful for tests and single-node development.
type MemoryStorage struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (s *MemoryStorage) Store(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Query returns matching events, newest first.
func (s *MemoryStorage) Query(_ context.Context, c Criteria) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, 0)
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if c.TenantID != "" && e.TenantID != c.TenantID {
			continue
		}
		if c.PrincipalID != "" && e.PrincipalID != c.PrincipalID {
			continue
		}
		if c.Action != "" && e.Action != c.Action {
			continue
		}
		if !c.Since.IsZero() && e.CreatedAt.Before(c.Since) {
			continue
		}
		out = append(out, e)
		if c.Limit > 0 && len(out) == c.Limit {
			break
		}
	}
	return out, nil
}
