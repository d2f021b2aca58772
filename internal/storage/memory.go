package storage

import (
	"context"
	"sort"
	"sync"
)

// Memory keeps slots in process memory. Used by tests and ephemeral CLI sessions.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: map[string][]byte{}}
}

func (s *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	s.mu.RLock()
	v, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (s *Memory) Set(ctx context.Context, key string, value []byte) error {
	_ = ctx
	s.mu.Lock()
	s.items[key] = clone(value)
	s.mu.Unlock()
	return nil
}

func (s *Memory) Update(ctx context.Context, key string, fn UpdateFunc) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, found := s.items[key]
	next, err := fn(clone(cur), found)
	if err != nil || next == nil {
		return err
	}
	s.items[key] = clone(next)
	return nil
}

func (s *Memory) Remove(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

func (s *Memory) Keys(ctx context.Context) ([]string, error) {
	_ = ctx
	s.mu.RLock()
	out := make([]string, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	s.mu.RUnlock()
	sort.Strings(out)
	return out, nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
