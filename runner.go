package querycache

import (
	"context"
	"sync"
)

// Outcome is how one attempt ended. A canceled attempt has no Err: it was
// superseded or torn down, which is not a failure.
type Outcome[V any] struct {
	Value    V
	Err      error
	Canceled bool
}

// Runner executes attempts of an operation for one subscription, keeping at
// most one active. Starting an attempt cancels the previous one.
// The zero value is ready to use.
type Runner[V any] struct {
	mu      sync.Mutex
	current *Token
	closed  bool
}

// Run cancels any outstanding attempt, then runs op with a fresh token derived
// from parent and blocks until op returns.
func (r *Runner[V]) Run(parent context.Context, op Fetcher[V]) Outcome[V] {
	tok := r.begin(parent)
	if tok == nil {
		return Outcome[V]{Canceled: true}
	}
	v, err := op(tok.Context())
	return r.finish(tok, v, err)
}

// begin makes a new attempt current. It returns nil after Close.
func (r *Runner[V]) begin(parent context.Context) *Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	if r.current != nil {
		r.current.Cancel()
	}
	r.current = NewToken(parent)
	return r.current
}

func (r *Runner[V]) finish(tok *Token, v V, err error) Outcome[V] {
	wasCanceled := tok.Canceled() || IsCanceled(err)
	r.mu.Lock()
	if r.current == tok {
		r.current = nil
	}
	r.mu.Unlock()
	tok.Cancel() // release the context

	if wasCanceled {
		return Outcome[V]{Canceled: true}
	}
	return Outcome[V]{Value: v, Err: err}
}

// Loading reports whether an attempt is outstanding.
func (r *Runner[V]) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

// Cancel fires the current attempt's token, if any.
func (r *Runner[V]) Cancel() {
	r.mu.Lock()
	if r.current != nil {
		r.current.Cancel()
	}
	r.mu.Unlock()
}

// Close cancels the current attempt and makes later runs return Canceled.
func (r *Runner[V]) Close() {
	r.mu.Lock()
	r.closed = true
	if r.current != nil {
		r.current.Cancel()
	}
	r.mu.Unlock()
}
