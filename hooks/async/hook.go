// Package asynchook moves Hooks calls off the caller's goroutine.
//
// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{HitEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	users, _ := querycache.New[[]User](querycache.Options[[]User]{
//	    Namespace: "users",
//	    Hooks:     hooks, // or raw to run them inline
//	})
//
// Events are dropped, not queued, once the queue is full.
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/querycache"
)

type Hooks struct {
	inner   querycache.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	mu      sync.RWMutex // guards q against send-after-close
	closed  bool
	dropped atomic.Uint64
}

var _ querycache.Hooks = (*Hooks)(nil)

func New(inner querycache.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = querycache.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are
// dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped counts events discarded because the queue was full or closed.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) CacheHit(k string)     { h.try(func() { h.inner.CacheHit(k) }) }
func (h *Hooks) FlightJoined(k string) { h.try(func() { h.inner.FlightJoined(k) }) }
func (h *Hooks) FetchStarted(k string, attempt int) {
	h.try(func() { h.inner.FetchStarted(k, attempt) })
}
func (h *Hooks) FetchRetried(k string, attempt int, err error) {
	h.try(func() { h.inner.FetchRetried(k, attempt, err) })
}
func (h *Hooks) FetchFailed(k string, attempts int, err error) {
	h.try(func() { h.inner.FetchFailed(k, attempts, err) })
}
func (h *Hooks) FetchCanceled(k string) { h.try(func() { h.inner.FetchCanceled(k) }) }
func (h *Hooks) CommitSkipped(k string) { h.try(func() { h.inner.CommitSkipped(k) }) }
func (h *Hooks) Invalidated(k string)   { h.try(func() { h.inner.Invalidated(k) }) }
