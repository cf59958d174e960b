// Package store is a small reducer-driven state container. Dispatch runs the
// reducer and notifies subscribers only when the state actually changed.
package store

import (
	"sync"

	"github.com/unkn0wn-root/querycache/pubsub"
)

// Reducer returns the next state. Returning the state unchanged means the
// action had no effect.
type Reducer[S comparable, A any] func(state S, action A) S

type Store[S comparable, A any] struct {
	reduce Reducer[S, A]

	mu     sync.Mutex
	state  S
	bridge pubsub.Bridge
}

func New[S comparable, A any](reduce Reducer[S, A], initial S) *Store[S, A] {
	return &Store[S, A]{reduce: reduce, state: initial}
}

func (s *Store[S, A]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies action and reports whether the state changed.
// Listeners run after the lock is released, so they may read State or
// dispatch again.
func (s *Store[S, A]) Dispatch(action A) bool {
	s.mu.Lock()
	next := s.reduce(s.state, action)
	changed := next != s.state
	if changed {
		s.state = next
	}
	s.mu.Unlock()

	if changed {
		s.bridge.Notify()
	}
	return changed
}

func (s *Store[S, A]) Subscribe(l pubsub.Listener) (unsubscribe func()) {
	return s.bridge.Subscribe(l)
}

// Select calls onChange with the projected value whenever a dispatch changes
// it. Dispatches that change other parts of the state are filtered out.
// It returns the current projection and an unsubscribe func.
func Select[S comparable, A any, T comparable](s *Store[S, A], pick func(S) T, onChange func(T)) (T, func()) {
	var mu sync.Mutex
	last := pick(s.State())
	unsub := s.Subscribe(func() {
		next := pick(s.State())
		mu.Lock()
		if next == last {
			mu.Unlock()
			return
		}
		last = next
		mu.Unlock()
		onChange(next)
	})
	mu.Lock()
	defer mu.Unlock()
	return last, unsub
}
