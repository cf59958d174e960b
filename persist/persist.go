// Package persist keeps a single value in memory, mirrored to a byte store.
//
// Reads never fail: a miss, a store error or an undecodable frame all fall
// back to the initial value. Writes update memory first, notify subscribers,
// then persist best-effort; storage errors are logged and never returned.
package persist

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/unkn0wn-root/querycache"
	"github.com/unkn0wn-root/querycache/codec"
	"github.com/unkn0wn-root/querycache/internal/wire"
	"github.com/unkn0wn-root/querycache/provider"
	"github.com/unkn0wn-root/querycache/pubsub"
)

const defaultNamespace = "app"

var (
	ErrNoKey      = errors.New("persist: empty key")
	ErrNoProvider = errors.New("persist: nil provider")
	ErrNoCodec    = errors.New("persist: nil codec")
)

type Config[V any] struct {
	Namespace string // default "app"
	Key       string
	Initial   V

	Provider provider.Provider
	Codec    codec.Codec[V]

	TTL     time.Duration // 0 = no expiry where supported
	Logger  querycache.Logger
	Now     func() time.Time
	Timeout time.Duration // per store call; 0 = caller's context only
}

// Value is one persisted value. Create with New; methods are safe for
// concurrent use.
type Value[V any] struct {
	key      string
	storeKey string
	initial  V
	store    provider.Provider
	codec    codec.Codec[V]
	ttl      time.Duration
	timeout  time.Duration
	log      querycache.Logger
	now      func() time.Time

	mu      sync.Mutex
	v       V
	savedAt time.Time
	bridge  pubsub.Bridge
}

func New[V any](cfg Config[V]) (*Value[V], error) {
	switch {
	case cfg.Key == "":
		return nil, ErrNoKey
	case cfg.Provider == nil:
		return nil, ErrNoProvider
	case cfg.Codec == nil:
		return nil, ErrNoCodec
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = defaultNamespace
	}
	p := &Value[V]{
		key:      cfg.Key,
		storeKey: "persist:" + ns + ":" + cfg.Key,
		initial:  cfg.Initial,
		store:    cfg.Provider,
		codec:    cfg.Codec,
		ttl:      cfg.TTL,
		timeout:  cfg.Timeout,
		log:      cfg.Logger,
		now:      cfg.Now,
		v:        cfg.Initial,
	}
	if p.log == nil {
		p.log = querycache.NopLogger{}
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// Load reads the stored value into memory and returns it. Corrupt frames are
// deleted. Subscribers are notified when the loaded value replaces memory.
func (p *Value[V]) Load(ctx context.Context) V {
	ctx, cancel := p.callCtx(ctx)
	defer cancel()

	v, savedAt, ok := p.read(ctx)
	if !ok {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.v
	}
	p.mu.Lock()
	p.v = v
	p.savedAt = savedAt
	p.mu.Unlock()
	p.bridge.Notify()
	return v
}

func (p *Value[V]) read(ctx context.Context) (V, time.Time, bool) {
	var zero V
	raw, ok, err := p.store.Get(ctx, p.storeKey)
	if err != nil {
		p.log.Warn("persist read error", querycache.Fields{"key": p.key, "err": err})
		return zero, time.Time{}, false
	}
	if !ok {
		return zero, time.Time{}, false
	}
	savedAt, payload, err := wire.DecodeValue(raw)
	if err == nil {
		var v V
		if v, err = p.codec.Decode(payload); err == nil {
			return v, savedAt, true
		}
	}
	p.log.Warn("persisted value unreadable, deleting", querycache.Fields{"key": p.key, "err": err})
	if derr := p.store.Del(ctx, p.storeKey); derr != nil {
		p.log.Error("persist delete error", querycache.Fields{"key": p.key, "err": derr})
	}
	return zero, time.Time{}, false
}

// Get returns the in-memory value without touching the store.
func (p *Value[V]) Get() V {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.v
}

// SavedAt is when the current value was written; zero if it never was.
func (p *Value[V]) SavedAt() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.savedAt
}

// Set replaces the value, notifies subscribers and persists it.
func (p *Value[V]) Set(ctx context.Context, v V) {
	p.Update(ctx, func(V) V { return v })
}

// Update applies fn to the current value under the lock, then behaves like Set.
func (p *Value[V]) Update(ctx context.Context, fn func(V) V) {
	p.mu.Lock()
	v := fn(p.v)
	at := p.now()
	p.v = v
	p.savedAt = at
	p.mu.Unlock()

	p.bridge.Notify()
	p.write(ctx, v, at)
}

func (p *Value[V]) write(ctx context.Context, v V, at time.Time) {
	payload, err := p.codec.Encode(v)
	if err != nil {
		p.log.Error("persist encode error", querycache.Fields{"key": p.key, "err": err})
		return
	}
	frame := wire.EncodeValue(at, payload)

	ctx, cancel := p.callCtx(ctx)
	defer cancel()
	ok, err := p.store.Set(ctx, p.storeKey, frame, int64(len(frame)), p.ttl)
	switch {
	case err != nil:
		p.log.Warn("persist write error", querycache.Fields{"key": p.key, "err": err})
	case !ok:
		p.log.Debug("persist write rejected", querycache.Fields{"key": p.key, "size": len(frame)})
	}
}

// Reset restores the initial value and removes the stored copy.
func (p *Value[V]) Reset(ctx context.Context) {
	p.mu.Lock()
	p.v = p.initial
	p.savedAt = time.Time{}
	p.mu.Unlock()
	p.bridge.Notify()

	ctx, cancel := p.callCtx(ctx)
	defer cancel()
	if err := p.store.Del(ctx, p.storeKey); err != nil {
		p.log.Warn("persist delete error", querycache.Fields{"key": p.key, "err": err})
	}
}

func (p *Value[V]) Subscribe(l pubsub.Listener) (unsubscribe func()) {
	return p.bridge.Subscribe(l)
}

func (p *Value[V]) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if p.timeout > 0 {
		return context.WithTimeout(ctx, p.timeout)
	}
	return ctx, func() {}
}
