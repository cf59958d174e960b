// Package sloghooks reports cache events to a *slog.Logger. Keys are redacted
// (SHA-256 prefix by default) and hot-path events can be sampled.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/querycache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery   uint64
	FetchEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr   atomic.Uint64
	fetchCtr atomic.Uint64
}

var _ querycache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) CacheHit(key string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("querycache.hit", "key", h.redact(key))
}

func (h *Hooks) FlightJoined(key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("querycache.flight_joined", "key", h.redact(key))
}

func (h *Hooks) FetchStarted(key string, attempt int) {
	if h.l == nil || !sample(h.opts.FetchEvery, &h.fetchCtr) {
		return
	}
	h.l.Debug("querycache.fetch_started", "key", h.redact(key), "attempt", attempt)
}

func (h *Hooks) FetchRetried(key string, attempt int, err error) {
	if h.l == nil {
		return
	}
	h.l.Info("querycache.fetch_retried",
		"key", h.redact(key),
		"attempt", attempt,
		"err", err)
}

func (h *Hooks) FetchFailed(key string, attempts int, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("querycache.fetch_failed",
		"key", h.redact(key),
		"attempts", attempts,
		"err", err)
}

func (h *Hooks) FetchCanceled(key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("querycache.fetch_canceled", "key", h.redact(key))
}

func (h *Hooks) CommitSkipped(key string) {
	if h.l == nil {
		return
	}
	h.l.Info("querycache.commit_skipped", "key", h.redact(key))
}

func (h *Hooks) Invalidated(key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("querycache.invalidated", "key", h.redact(key))
}
