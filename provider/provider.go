// Package provider defines the byte store behind persisted values.
//
// Implementations must be byte-for-byte transparent: Get returns exactly the
// []byte previously passed to Set for a key. Stores that compress or otherwise
// transform values must fully reverse it on read.
//
// The keyspace "persist:<ns>:" is owned by package persist. Foreign bytes
// found there fail frame validation and are deleted.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs, safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	// IO or remote errors return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. ttl <= 0 means no expiry where the store supports it.
	// cost is a hint for cost-based stores and may be ignored.
	// ok=false means the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key. Missing keys are not an error.
	Del(ctx context.Context, key string) error

	Close(ctx context.Context) error
}
