package bigcache

import (
	"context"
	"testing"
)

func TestProviderRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, err := New(Config{HardMaxCacheSizeMB: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(ctx) })

	if _, ok, err := p.Get(ctx, "persist:app:theme"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if ok, err := p.Set(ctx, "persist:app:theme", []byte("dark"), 0, 0); !ok || err != nil {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	b, ok, err := p.Get(ctx, "persist:app:theme")
	if !ok || err != nil || string(b) != "dark" {
		t.Fatalf("Get: %q ok=%v err=%v", b, ok, err)
	}
	if err := p.Del(ctx, "persist:app:theme"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if err := p.Del(ctx, "persist:app:theme"); err != nil {
		t.Fatalf("Del of missing key should be nil: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "persist:app:theme"); ok {
		t.Fatalf("expected miss after Del")
	}
}
