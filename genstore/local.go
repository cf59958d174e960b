package genstore

import (
	"context"
	"sync"
)

var _ GenStore = (*Local)(nil)

// Local keeps generations in-process. Records are never pruned: cache entries
// live for the process lifetime, so their generations do too.
type Local struct {
	mu   sync.RWMutex
	gens map[string]uint64
}

func NewLocal() *Local {
	return &Local{gens: make(map[string]uint64)}
}

func (s *Local) Snapshot(_ context.Context, k string) (uint64, error) {
	s.mu.RLock()
	g := s.gens[k] // zero value (0) if missing
	s.mu.RUnlock()
	return g, nil
}

func (s *Local) Bump(_ context.Context, k string) (uint64, error) {
	s.mu.Lock()
	s.gens[k]++
	g := s.gens[k]
	s.mu.Unlock()
	return g, nil
}

func (s *Local) Close(context.Context) error { return nil }
