package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"credo/pkg/domain"
	audit "credo/pkg/platform/audit"
)

// InMemoryStore keeps events in arrival order. Appending an event id that is
// already stored is a no-op, matching the postgres store.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
	seen   map[uuid.UUID]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{seen: make(map[uuid.UUID]struct{})}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[event.ID]; dup {
		return nil
	}
	s.seen[event.ID] = struct{}{}
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByAddress(_ context.Context, addr domain.Address) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []audit.Event{}
	for _, e := range s.events {
		if e.Involves(addr) {
			out = append(out, e)
		}
	}
	return out, nil
}

// ListAll returns a copy of every stored event.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}
