package querycache

import "github.com/cenkalti/backoff/v4"

const defaultNamespace = "query"

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

func immediateBackOff() backoff.BackOff { return &backoff.ZeroBackOff{} }
