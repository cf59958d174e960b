package pubsub

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestNotifyCallsEveryListenerOnce(t *testing.T) {
	var b Bridge
	var a, c int
	b.Subscribe(func() { a++ })
	b.Subscribe(func() { c++ })

	b.Notify()
	if a != 1 || c != 1 {
		t.Fatalf("expected one call each, got a=%d c=%d", a, c)
	}
	b.Notify()
	if a != 2 || c != 2 {
		t.Fatalf("expected two calls each, got a=%d c=%d", a, c)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	var b Bridge
	calls := 0
	unsub := b.Subscribe(func() { calls++ })
	b.Subscribe(func() {})

	unsub()
	unsub()
	if b.Len() != 1 {
		t.Fatalf("expected 1 listener left, got %d", b.Len())
	}
	b.Notify()
	if calls != 0 {
		t.Fatalf("removed listener was called %d times", calls)
	}
}

func TestMutationDuringNotify(t *testing.T) {
	var b Bridge
	lateCalls := 0
	var unsubSelf func()
	selfCalls := 0
	unsubSelf = b.Subscribe(func() {
		selfCalls++
		unsubSelf()
		b.Subscribe(func() { lateCalls++ })
	})

	b.Notify()
	if selfCalls != 1 {
		t.Fatalf("self-removing listener called %d times", selfCalls)
	}
	if lateCalls != 0 {
		t.Fatalf("listener added during notify must not see that notify")
	}

	b.Notify()
	if selfCalls != 1 {
		t.Fatalf("unsubscribed listener called again")
	}
	if lateCalls != 1 {
		t.Fatalf("late listener expected 1 call, got %d", lateCalls)
	}
}

func TestNilListenerIgnored(t *testing.T) {
	var b Bridge
	unsub := b.Subscribe(nil)
	unsub()
	if b.Len() != 0 {
		t.Fatalf("nil listener should not be registered")
	}
	b.Notify()
}

func TestConcurrentSubscribeNotify(t *testing.T) {
	var b Bridge
	var total atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := b.Subscribe(func() { total.Add(1) })
			b.Notify()
			unsub()
		}()
	}
	wg.Wait()
	if b.Len() != 0 {
		t.Fatalf("expected all listeners removed, got %d", b.Len())
	}
	if total.Load() == 0 {
		t.Fatalf("expected at least one listener call")
	}
}
