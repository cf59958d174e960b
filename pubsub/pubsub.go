// Package pubsub is the notification bridge between querycache state and
// whatever re-renders on top of it. It carries no payload: listeners re-read
// the state they care about when called.
package pubsub

import "sync"

// Listener is called once per Notify while subscribed.
type Listener func()

// Bridge is a set of listeners. The zero value is ready to use.
type Bridge struct {
	mu        sync.Mutex
	next      uint64
	listeners map[uint64]Listener
}

// Subscribe registers l and returns a function that removes it.
// The returned function is idempotent. A nil listener is ignored.
func (b *Bridge) Subscribe(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}
	b.mu.Lock()
	if b.listeners == nil {
		b.listeners = make(map[uint64]Listener)
	}
	id := b.next
	b.next++
	b.listeners[id] = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Notify calls every listener registered at the time of the call exactly once.
// Order between listeners is unspecified. Listeners may subscribe or
// unsubscribe from inside the callback; such changes apply to later calls.
func (b *Bridge) Notify() {
	b.mu.Lock()
	if len(b.listeners) == 0 {
		b.mu.Unlock()
		return
	}
	snapshot := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		snapshot = append(snapshot, l)
	}
	b.mu.Unlock()

	for _, l := range snapshot {
		l()
	}
}

// Len reports the number of registered listeners.
func (b *Bridge) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}
