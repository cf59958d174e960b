// Package genstore holds per-key generation counters. A generation moves
// every time a key is invalidated, which lets a long-running fetch detect that
// its result no longer belongs in the cache.
package genstore

import "context"

// GenStore abstracts where generations live.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, key string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, key string) (uint64, error)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
