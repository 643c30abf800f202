package catalog

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	names map[Kind][]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{names: make(map[Kind][]string)}
}

func (s *MemoryStore) Add(ctx context.Context, kind Kind, name string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names[kind] = append(s.names[kind], name)
	return nil
}

func (s *MemoryStore) Names(ctx context.Context, kind Kind) ([]string, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]string{}, s.names[kind]...), nil
}
