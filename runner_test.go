package querycache

import (
	"context"
	"errors"
	"testing"
)

func TestTokenCancel(t *testing.T) {
	tok := NewToken(nil)
	if tok.Canceled() || tok.Err() != nil {
		t.Fatalf("new token should be live")
	}
	tok.Cancel()
	tok.Cancel()
	if !tok.Canceled() {
		t.Fatalf("token should be canceled")
	}
	if err := tok.Err(); !errors.Is(err, ErrCanceled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("Err=%v", err)
	}
	if !errors.Is(context.Cause(tok.Context()), ErrCanceled) {
		t.Fatalf("cause should be ErrCanceled, got %v", context.Cause(tok.Context()))
	}
	select {
	case <-tok.Done():
	default:
		t.Fatalf("Done should be closed")
	}
}

func TestTokenFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	tok := NewToken(parent)
	cancel()
	<-tok.Done()
	if !tok.Canceled() || !IsCanceled(tok.Err()) {
		t.Fatalf("token should be canceled through its parent")
	}
}

func TestRunnerSuccessAndFailure(t *testing.T) {
	var r Runner[int]
	out := r.Run(context.Background(), func(context.Context) (int, error) {
		if !r.Loading() {
			t.Errorf("runner should report loading during the attempt")
		}
		return 7, nil
	})
	if out.Canceled || out.Err != nil || out.Value != 7 {
		t.Fatalf("success outcome: %+v", out)
	}
	if r.Loading() {
		t.Fatalf("runner should be idle after the attempt")
	}

	boom := errors.New("boom")
	out = r.Run(context.Background(), func(context.Context) (int, error) { return 0, boom })
	if out.Canceled || !errors.Is(out.Err, boom) {
		t.Fatalf("failure outcome: %+v", out)
	}
}

func TestRunnerSupersedesPreviousAttempt(t *testing.T) {
	var r Runner[string]
	started := make(chan struct{})
	first := make(chan Outcome[string], 1)
	go func() {
		first <- r.Run(context.Background(), func(ctx context.Context) (string, error) {
			close(started)
			<-ctx.Done()
			return "", ctx.Err()
		})
	}()
	<-started

	second := r.Run(context.Background(), func(context.Context) (string, error) { return "reloaded", nil })
	if second.Canceled || second.Value != "reloaded" {
		t.Fatalf("second outcome: %+v", second)
	}
	if o := recv(t, first); !o.Canceled || o.Err != nil {
		t.Fatalf("superseded attempt should be canceled silently: %+v", o)
	}
	if r.Loading() {
		t.Fatalf("runner should be idle")
	}
}

func TestRunnerIgnoresLateSuccessAfterCancel(t *testing.T) {
	var r Runner[int]
	out := r.Run(context.Background(), func(context.Context) (int, error) {
		r.Cancel()
		return 42, nil
	})
	if !out.Canceled || out.Value != 0 {
		t.Fatalf("value after cancel must be dropped: %+v", out)
	}
}

func TestRunnerClose(t *testing.T) {
	var r Runner[int]
	started := make(chan struct{})
	done := make(chan Outcome[int], 1)
	go func() {
		done <- r.Run(context.Background(), func(ctx context.Context) (int, error) {
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		})
	}()
	<-started
	r.Close()
	if o := recv(t, done); !o.Canceled {
		t.Fatalf("teardown should cancel: %+v", o)
	}

	ran := false
	o := r.Run(context.Background(), func(context.Context) (int, error) { ran = true; return 1, nil })
	if ran || !o.Canceled {
		t.Fatalf("closed runner must not run: ran=%v outcome=%+v", ran, o)
	}
	r.Cancel() // no-op after completion
}
