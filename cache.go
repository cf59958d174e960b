package querycache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	gen "github.com/unkn0wn-root/querycache/genstore"
	"github.com/unkn0wn-root/querycache/pubsub"
)

type cache[V any] struct {
	ns         string
	log        Logger
	hooks      Hooks
	gens       gen.GenStore
	now        func() time.Time
	newBackOff func() backoff.BackOff

	// mu guards entries and bridges. GenStore calls happen under mu so that
	// a generation snapshot and the entry it belongs to are read together.
	mu      sync.Mutex
	entries map[string]*entry[V]
	bridges map[string]*pubsub.Bridge
}

func newCache[V any](opts Options[V]) (*cache[V], error) {
	c := &cache[V]{
		entries:    make(map[string]*entry[V]),
		bridges:    make(map[string]*pubsub.Bridge),
		now:        opts.Now,
		newBackOff: opts.NewBackOff,
	}

	// defaults
	c.ns = coalesce(opts.Namespace, defaultNamespace)
	c.log = coalesce[Logger](opts.Logger, NopLogger{})
	c.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	if opts.Gens != nil {
		c.gens = opts.Gens
	} else {
		c.gens = gen.NewLocal()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.newBackOff == nil {
		c.newBackOff = immediateBackOff
	}
	return c, nil
}

func (c *cache[V]) Now() time.Time { return c.now() }

func (c *cache[V]) Close(ctx context.Context) error {
	if c.gens != nil {
		return c.gens.Close(ctx)
	}
	return nil
}

func (c *cache[V]) Get(ctx context.Context, key string, fetch Fetcher[V], opts GetOptions) (V, error) {
	var zero V
	switch {
	case key == "":
		return zero, ErrEmptyKey
	case fetch == nil:
		return zero, ErrNilFetcher
	case opts.StaleTime < 0 || opts.Retry < 0:
		return zero, ErrInvalidOptions
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return zero, canceled(ctx)
	}

	c.mu.Lock()
	e := c.entryLocked(key)
	if e.hasData && c.now().Sub(e.updatedAt) <= opts.StaleTime {
		v := e.data
		c.mu.Unlock()
		c.hooks.CacheHit(key)
		return v, nil
	}
	if f := e.flight; f != nil {
		c.mu.Unlock()
		c.hooks.FlightJoined(key)
		v, err := f.wait(ctx)
		if f.abandoned() && ctx.Err() == nil {
			// the initiator was canceled but this caller still wants the value
			return c.Get(ctx, key, fetch, opts)
		}
		return v, err
	}
	f := &flight[V]{done: make(chan struct{})}
	f.gen, f.genErr = c.gens.Snapshot(ctx, key)
	e.flight = f
	c.mu.Unlock()

	if f.genErr != nil {
		// Conservative: the result is returned to waiters but not stored.
		c.log.Warn("gen snapshot error", Fields{"ns": c.ns, "key": key, "err": f.genErr})
	}
	c.log.Debug("fetch started", Fields{"ns": c.ns, "key": key, "retry": opts.Retry})
	c.notify(key)

	c.fly(ctx, key, e, f, fetch, opts.Retry)
	return f.val, f.err
}

// fly runs the attempt sequence for f and settles it.
func (c *cache[V]) fly(ctx context.Context, key string, e *entry[V], f *flight[V], fetch Fetcher[V], retry int) {
	attempts := 0
	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(retry)), ctx)
	v, err := backoff.RetryNotifyWithData[V](func() (V, error) {
		if ctx.Err() != nil {
			var zero V
			return zero, backoff.Permanent(canceled(ctx))
		}
		attempts++
		c.hooks.FetchStarted(key, attempts)
		v, err := fetch(ctx)
		switch {
		case ctx.Err() != nil:
			// no state mutation once cancellation is observed, even on success
			return v, backoff.Permanent(canceled(ctx))
		case IsCanceled(err):
			// the fetcher aborted on its own signal
			return v, backoff.Permanent(abortedErr(err))
		}
		return v, err
	}, policy, func(err error, wait time.Duration) {
		c.log.Debug("fetch attempt failed, retrying", Fields{"ns": c.ns, "key": key, "attempt": attempts, "wait": wait, "err": err})
		c.hooks.FetchRetried(key, attempts, err)
	})
	// a cancel landing after a successful fetch is a no-op; ctx ending between
	// attempts surfaces as the ctx error from the backoff loop
	wasCanceled := err != nil && (IsCanceled(err) || ctx.Err() != nil)

	c.mu.Lock()
	current := c.entries[key] == e
	commit := current && f.genErr == nil
	if commit {
		g, gerr := c.gens.Snapshot(context.Background(), key)
		commit = gerr == nil && g == f.gen
	}
	switch {
	case wasCanceled:
		if IsCanceled(err) {
			f.err = abortedErr(err)
		} else {
			f.err = canceled(ctx)
		}
		f.canceled = true
	case err != nil:
		f.err = &FetchError{Key: key, Attempts: attempts, Err: err}
		if commit {
			e.err = f.err
		}
	default:
		f.val = v
		if commit {
			e.data = v
			e.hasData = true
			e.err = nil
			e.updatedAt = c.now()
		}
	}
	if e.flight == f {
		e.flight = nil
	}
	c.mu.Unlock()
	close(f.done)

	switch {
	case wasCanceled:
		c.log.Debug("fetch canceled", Fields{"ns": c.ns, "key": key, "attempts": attempts})
		c.hooks.FetchCanceled(key)
	case err != nil:
		c.log.Warn("fetch failed", Fields{"ns": c.ns, "key": key, "attempts": attempts, "err": err})
		c.hooks.FetchFailed(key, attempts, err)
	}
	if !wasCanceled && !commit {
		c.log.Debug("fetch result not stored (generation moved)", Fields{"ns": c.ns, "key": key})
		c.hooks.CommitSkipped(key)
	}
	if current {
		c.notify(key)
	}
}

func (c *cache[V]) Invalidate(key string) {
	c.mu.Lock()
	if _, ok := c.entries[key]; !ok {
		c.mu.Unlock()
		return
	}
	delete(c.entries, key)
	newGen, err := c.gens.Bump(context.Background(), key)
	c.mu.Unlock()

	if err != nil {
		// the entry is gone either way; a running flight also checks entry identity
		c.log.Error("gen bump error", Fields{"ns": c.ns, "key": key, "err": err})
	} else {
		c.log.Debug("invalidated key", Fields{"ns": c.ns, "key": key, "newGen": newGen})
	}
	c.hooks.Invalidated(key)
	c.notify(key)
}

func (c *cache[V]) Peek(key string) Snapshot[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Snapshot[V]{}
	}
	return Snapshot[V]{
		Data:      e.data,
		HasData:   e.hasData,
		Err:       e.err,
		UpdatedAt: e.updatedAt,
		Loading:   e.flight != nil,
	}
}

func (c *cache[V]) Subscribe(key string, l pubsub.Listener) func() {
	c.mu.Lock()
	b, ok := c.bridges[key]
	if !ok {
		b = &pubsub.Bridge{}
		c.bridges[key] = b
	}
	c.mu.Unlock()
	return b.Subscribe(l)
}

func (c *cache[V]) Keys() []string {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()
	sort.Strings(keys)
	return keys
}

// entryLocked returns the entry for key, creating it on first lookup.
func (c *cache[V]) entryLocked(key string) *entry[V] {
	e, ok := c.entries[key]
	if !ok {
		e = &entry[V]{}
		c.entries[key] = e
	}
	return e
}

// notify must be called without c.mu held.
func (c *cache[V]) notify(key string) {
	c.mu.Lock()
	b := c.bridges[key]
	c.mu.Unlock()
	if b != nil {
		b.Notify()
	}
}
