package querycache

import (
	"context"
	"time"
)

// entry is the per-key record. All fields are guarded by cache.mu.
type entry[V any] struct {
	data      V
	hasData   bool
	err       error
	updatedAt time.Time // zero => never resolved
	flight    *flight[V]
}

// flight is one fetch sequence (first attempt plus retries) shared by every
// caller that asked for the key while it ran. val and err are written before
// done is closed.
type flight[V any] struct {
	done     chan struct{}
	val      V
	err      error
	canceled bool // the initiator went away before the flight settled

	gen    uint64 // generation observed when the flight started
	genErr error
}

func (f *flight[V]) wait(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero V
		return zero, canceled(ctx)
	}
}

// abandoned reports whether f settled because its initiator was canceled.
func (f *flight[V]) abandoned() bool {
	select {
	case <-f.done:
		return f.canceled
	default:
		return false
	}
}

// Status is the per-key state as seen by a reader with a given stale time.
type Status uint8

const (
	StatusEmpty Status = iota
	StatusLoading
	StatusFresh
	StatusStale
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoading:
		return "loading"
	case StatusFresh:
		return "fresh"
	case StatusStale:
		return "stale"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of an entry taken under the cache lock.
type Snapshot[V any] struct {
	Data      V
	HasData   bool
	Err       error
	UpdatedAt time.Time
	Loading   bool
}

// Stale reports whether the data is missing or older than staleTime at now.
func (s Snapshot[V]) Stale(now time.Time, staleTime time.Duration) bool {
	return !s.HasData || now.Sub(s.UpdatedAt) > staleTime
}

// Status folds the snapshot into the per-key state machine.
// Fresh and Stale differ only by the read-time check.
func (s Snapshot[V]) Status(now time.Time, staleTime time.Duration) Status {
	switch {
	case s.Loading:
		return StatusLoading
	case s.Err != nil:
		return StatusError
	case !s.HasData:
		return StatusEmpty
	case s.Stale(now, staleTime):
		return StatusStale
	default:
		return StatusFresh
	}
}
