package sloghooks

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/querycache"
	asynchook "github.com/unkn0wn-root/querycache/hooks/async"
)

func newBuf(level slog.Level) (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level}))
}

func TestRedactsKeys(t *testing.T) {
	buf, l := newBuf(slog.LevelDebug)
	h := New(l, Options{})
	h.FetchFailed("user:42:email", 2, errors.New("HTTP 500"))

	out := buf.String()
	if strings.Contains(out, "user:42:email") {
		t.Fatalf("raw key leaked: %s", out)
	}
	if !strings.Contains(out, "querycache.fetch_failed") || !strings.Contains(out, h.redact("user:42:email")) {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	plain := New(l, Options{Redact: func(k string) string { return k }})
	plain.Invalidated("users")
	if !strings.Contains(buf.String(), "key=users") {
		t.Fatalf("custom redactor ignored: %s", buf.String())
	}
}

func TestSamplesHits(t *testing.T) {
	buf, l := newBuf(slog.LevelDebug)
	h := New(l, Options{HitEvery: 10})
	for i := 0; i < 100; i++ {
		h.CacheHit("users")
	}
	if n := strings.Count(buf.String(), "querycache.hit"); n != 10 {
		t.Fatalf("logged %d hits, want 10", n)
	}
}

func TestNilLogger(t *testing.T) {
	h := New(nil, Options{})
	h.CacheHit("k")
	h.FlightJoined("k")
	h.FetchStarted("k", 1)
	h.FetchRetried("k", 1, nil)
	h.FetchFailed("k", 1, nil)
	h.FetchCanceled("k")
	h.CommitSkipped("k")
	h.Invalidated("k")
}

func TestDrivenByCache(t *testing.T) {
	buf, l := newBuf(slog.LevelDebug)
	hooks := asynchook.New(New(l, Options{Redact: func(k string) string { return k }}), 1, 64)

	c, err := querycache.New(querycache.Options[int]{Hooks: hooks})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	fail := func(context.Context) (int, error) { return 0, errors.New("HTTP 500") }
	ok := func(context.Context) (int, error) { return 1, nil }

	_, _ = c.Get(ctx, "count", fail, querycache.GetOptions{Retry: 1})
	_, _ = c.Get(ctx, "count", ok, querycache.GetOptions{StaleTime: time.Minute})
	_, _ = c.Get(ctx, "count", ok, querycache.GetOptions{StaleTime: time.Minute})
	c.Invalidate("count")
	hooks.Close()

	out := buf.String()
	for _, ev := range []string{"fetch_started", "fetch_retried", "fetch_failed", "hit", "invalidated"} {
		if !strings.Contains(out, "querycache."+ev) {
			t.Fatalf("missing %s in:\n%s", ev, out)
		}
	}
}
