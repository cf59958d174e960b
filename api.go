package querycache

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	gen "github.com/unkn0wn-root/querycache/genstore"
	"github.com/unkn0wn-root/querycache/pubsub"
)

// Fetcher produces the value for one key. It must honor ctx and return
// promptly once ctx is done.
type Fetcher[V any] func(ctx context.Context) (V, error)

// GetOptions control freshness and retry for a single Get.
type GetOptions struct {
	StaleTime time.Duration // how long a successful result stays fresh; 0 => always refetch
	Retry     int           // re-attempts after the first failure
}

// Cache is a keyed store of asynchronous results with single-flight fetches.
// V is the caller's value type. One Cache is typically built per resource type
// at startup and shared by reference.
type Cache[V any] interface {
	// Get returns fresh cached data, joins an in-flight fetch, or starts one.
	Get(ctx context.Context, key string, fetch Fetcher[V], opts GetOptions) (V, error)
	// Invalidate drops the entry for key. Absent keys are a no-op.
	Invalidate(key string)

	// Peek returns the current state of key without creating an entry.
	Peek(key string) Snapshot[V]
	// Subscribe registers l for state changes of key.
	Subscribe(key string, l pubsub.Listener) (unsubscribe func())
	// Keys lists keys that currently have an entry, sorted.
	Keys() []string

	// Now is the cache clock, used for staleness.
	Now() time.Time
	Close(context.Context) error
}

// Options tune a Cache. The zero value is usable.
type Options[V any] struct {
	Namespace string // label attached to logs; "" => "query"

	Logger Logger       // if nil, NopLogger is used
	Hooks  Hooks        // if nil, NopHooks is used
	Gens   gen.GenStore // nil => in-process genstore.Local

	// Now is the clock used for updatedAt and staleness. nil => time.Now.
	Now func() time.Time

	// NewBackOff builds the delay policy between retries of one flight.
	// nil => immediate retries. The retry count always comes from GetOptions.
	NewBackOff func() backoff.BackOff
}

func New[V any](opts Options[V]) (Cache[V], error) {
	return newCache[V](opts)
}
