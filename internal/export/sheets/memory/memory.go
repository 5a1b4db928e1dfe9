package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"contas/internal/core"
)

// Store is an in-memory transaction mirror. It backs local development
// runs without Google credentials and the worker tests.
type Store struct {
	mu    sync.Mutex
	items map[uuid.UUID]core.Transaction
	order []uuid.UUID
}

func New() *Store {
	return &Store{items: make(map[uuid.UUID]core.Transaction)}
}

// Upsert stores the transaction and returns a synthetic row reference.
func (s *Store) Upsert(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.items[t.ID] = t
	for i, id := range s.order {
		if id == t.ID {
			return fmt.Sprintf("mem:%d", i+1), nil
		}
	}
	return "", fmt.Errorf("row reference lost for %s", t.ID)
}

// Delete removes the transaction. Missing IDs are ignored.
func (s *Store) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return nil
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the stored transaction, if present.
func (s *Store) Get(id uuid.UUID) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	return t, ok
}

// Len returns the number of mirrored transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
