package asynchook

import (
	"errors"
	"sync"
	"testing"

	"github.com/unkn0wn-root/querycache"
)

type recorder struct {
	querycache.NopHooks
	mu     sync.Mutex
	events []string
	block  chan struct{}
}

func (r *recorder) add(ev string) {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) CacheHit(k string)                    { r.add("hit:" + k) }
func (r *recorder) FetchFailed(k string, _ int, _ error) { r.add("failed:" + k) }
func (r *recorder) Invalidated(k string)                 { r.add("invalidated:" + k) }

func TestForwardsAndDrainsOnClose(t *testing.T) {
	rec := &recorder{}
	h := New(rec, 2, 16)
	h.CacheHit("users")
	h.FetchFailed("users", 3, errors.New("HTTP 500"))
	h.Invalidated("users")
	h.FetchStarted("users", 1) // NopHooks on the recorder
	h.Close()
	h.Close()

	if len(rec.events) != 3 {
		t.Fatalf("events = %v", rec.events)
	}
	h.CacheHit("after-close")
	if h.Dropped() != 1 {
		t.Fatalf("event after Close should be dropped, dropped=%d", h.Dropped())
	}
}

func TestDropsWhenFull(t *testing.T) {
	rec := &recorder{block: make(chan struct{})}
	h := New(rec, 1, 1)
	for i := 0; i < 10; i++ {
		h.CacheHit("users")
	}
	// one event held by the worker, at most one queued
	if h.Dropped() < 8 {
		t.Fatalf("expected most events dropped, dropped=%d", h.Dropped())
	}
	close(rec.block)
	h.Close()
}
