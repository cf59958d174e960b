package querycache

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEmptyKey       = errors.New("querycache: empty key")
	ErrNilFetcher     = errors.New("querycache: nil fetcher")
	ErrInvalidOptions = errors.New("querycache: negative stale time or retry")

	// ErrCanceled marks an attempt that was superseded or torn down.
	// It is never stored on an entry.
	ErrCanceled = errors.New("querycache: canceled")
)

// FetchError is the terminal failure of a key: every attempt failed.
// It stays on the entry until the next success or Invalidate.
type FetchError struct {
	Key      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	if e.Attempts == 1 {
		return fmt.Sprintf("fetch %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("fetch %q failed after %d attempts: %v", e.Key, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsCanceled reports whether err comes from cancellation rather than failure.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled) || errors.Is(err, context.Canceled)
}

// canceled wraps the context error so callers can match either ErrCanceled
// or the context sentinel.
func canceled(ctx context.Context) error {
	cause := context.Cause(ctx)
	if cause == nil || errors.Is(cause, ErrCanceled) {
		cause = ctx.Err()
	}
	if cause == nil {
		cause = context.Canceled
	}
	return fmt.Errorf("%w: %w", ErrCanceled, cause)
}

// abortedErr makes a cancellation reported by a fetcher match ErrCanceled.
func abortedErr(err error) error {
	if errors.Is(err, ErrCanceled) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrCanceled, err)
}
