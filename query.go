package querycache

import (
	"context"
	"sync"
)

// QueryResult is what a subscribed view renders.
type QueryResult[V any] struct {
	Data      V
	HasData   bool
	Err       error // terminal failure recorded for the key; never a cancellation
	IsLoading bool
	IsStale   bool
}

// Query binds one key of a Cache to the lifetime of a subscribing view.
// It fetches on creation, forwards state changes of the key to onChange and
// cancels its outstanding attempt on Close or when the parent context ends.
type Query[V any] struct {
	cache Cache[V]
	key   string
	fetch Fetcher[V]
	opts  GetOptions

	ctx      context.Context
	stop     context.CancelFunc
	runner   Runner[V]
	onChange func()
	unsub    func()
	once     sync.Once

	initial <-chan Outcome[V]
}

// Watch subscribes to key and starts the first fetch. onChange may be nil.
// Errors from Get that are not stored on the entry (invalid key or options)
// are only reported through the outcome channels.
func Watch[V any](parent context.Context, c Cache[V], key string, fetch Fetcher[V], opts GetOptions, onChange func()) *Query[V] {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := context.WithCancel(parent)
	q := &Query[V]{
		cache:    c,
		key:      key,
		fetch:    fetch,
		opts:     opts,
		ctx:      ctx,
		stop:     stop,
		onChange: onChange,
		unsub:    func() {},
	}
	if onChange != nil {
		q.unsub = c.Subscribe(key, onChange)
	}
	q.initial = q.Refetch()
	context.AfterFunc(ctx, q.Close)
	return q
}

// Key returns the watched key.
func (q *Query[V]) Key() string { return q.key }

// Initial delivers the outcome of the fetch started by Watch.
func (q *Query[V]) Initial() <-chan Outcome[V] { return q.initial }

// Refetch re-runs the query through the cache, superseding any attempt this
// handle still has outstanding. Fresh data is served without fetching.
// The channel receives exactly one outcome.
func (q *Query[V]) Refetch() <-chan Outcome[V] {
	out := make(chan Outcome[V], 1)
	tok := q.runner.begin(q.ctx)
	if tok == nil {
		out <- Outcome[V]{Canceled: true}
		return out
	}
	go func() {
		v, err := q.cache.Get(tok.Context(), q.key, q.fetch, q.opts)
		o := q.runner.finish(tok, v, err)
		if q.ctx.Err() == nil && q.onChange != nil {
			q.onChange()
		}
		out <- o
	}()
	return out
}

// Result reads the key's current state through this handle's stale time.
func (q *Query[V]) Result() QueryResult[V] {
	s := q.cache.Peek(q.key)
	return QueryResult[V]{
		Data:      s.Data,
		HasData:   s.HasData,
		Err:       s.Err,
		IsLoading: s.Loading || q.runner.Loading(),
		IsStale:   s.Stale(q.cache.Now(), q.opts.StaleTime),
	}
}

// Invalidate drops the cached entry for this handle's key.
func (q *Query[V]) Invalidate() { q.cache.Invalidate(q.key) }

// Close unsubscribes and cancels outstanding work. Safe to call repeatedly.
func (q *Query[V]) Close() {
	q.once.Do(func() {
		q.runner.Close()
		q.unsub()
		q.stop()
	})
}
