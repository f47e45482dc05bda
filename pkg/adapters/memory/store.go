package memory

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/intentflow/pkg/domain"
)

// Store implements ports.SnapshotStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Save keeps a private copy of data under name.
func (s *Store) Save(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return errors.New("snapshot name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = slices.Clone(data)
	return nil
}

// Load returns a copy so callers can't mutate the stored bytes.
func (s *Store) Load(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[name]
	if !ok {
		return nil, domain.ErrSnapshotNotFound
	}
	return slices.Clone(data), nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, name)
	return nil
}

// List returns stored names in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
