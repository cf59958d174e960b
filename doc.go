// Package querycache implements a stale-while-revalidate style request cache
// for client code: a keyed store of asynchronous results with per-read
// freshness windows, single-flight fetches, bounded retry and cooperative
// cancellation.
//
// Components:
//   - Cache[V]: keyed entries holding the last value, the last terminal error,
//     the time of the last success and at most one in-flight fetch.
//   - Runner[V]: one subscription's attempts; a new attempt cancels the old one.
//   - Query[V] (Watch): a view bound to a key, refetching through the cache.
//   - Operation[V]: a cache-less, retry-less abortable run (reload / teardown).
//   - pubsub.Bridge: change notifications for re-rendering.
//   - GenStore: per-key generations; Invalidate bumps them so a fetch that
//     outlives an invalidation does not write back.
//
// Read path:
//
//	v, err := users.Get(ctx, "users", fetchUsers, querycache.GetOptions{
//	    StaleTime: 5 * time.Second,
//	    Retry:     1,
//	})
//
// Fresh data (now - updatedAt <= StaleTime) is returned without calling the
// fetcher. Otherwise a running fetch for the key is joined, or a new one is
// started: the fetcher is called up to Retry+1 times, immediately one after
// another unless Options.NewBackOff supplies a delay policy.
//
// Cancellation is never an error state: a canceled fetch leaves the entry as
// it was and callers see an error matching ErrCanceled. A caller that joined
// a flight whose initiator was canceled starts its own fetch instead.
//
// Related packages:
//   - httpfetch: Fetchers that GET a URL and decode the body with a codec.
//   - store: reducer-driven state container with change-only notification.
//   - persist: a single value mirrored to a provider (ristretto, bigcache, redis).
//   - log/logrus, log/zap, log/slog: Logger adapters.
//   - sloghooks, hooks/async: Hooks implementations.
package querycache
