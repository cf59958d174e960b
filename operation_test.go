package querycache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestOperationLoadsOnCreate(t *testing.T) {
	var changes atomic.Int32
	op := NewOperation(context.Background(), func(context.Context) (string, error) {
		return "ada@example.com", nil
	}, func() { changes.Add(1) })
	defer op.Close()

	if o := recv(t, op.Initial()); o.Err != nil || o.Value != "ada@example.com" {
		t.Fatalf("initial: %+v", o)
	}
	r := op.Result()
	if !r.HasData || r.Data != "ada@example.com" || r.IsLoading || r.Err != nil {
		t.Fatalf("result: %+v", r)
	}
	if changes.Load() < 2 {
		t.Fatalf("expected start and finish notifications, got %d", changes.Load())
	}
}

func TestOperationNoCacheNoRetry(t *testing.T) {
	var calls atomic.Int32
	boom := errors.New("HTTP 500")
	op := NewOperation(context.Background(), func(context.Context) (int, error) {
		calls.Add(1)
		return 0, boom
	}, nil)
	defer op.Close()

	if o := recv(t, op.Initial()); !errors.Is(o.Err, boom) {
		t.Fatalf("initial: %+v", o)
	}
	if r := op.Result(); !errors.Is(r.Err, boom) {
		t.Fatalf("error should be visible: %+v", r)
	}
	recv(t, op.Reload())
	if calls.Load() != 2 {
		t.Fatalf("each reload calls op once, got %d calls", calls.Load())
	}
}

func TestOperationReloadClearsErrorAndCancelsPrevious(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	op := NewOperation(context.Background(), func(ctx context.Context) (int, error) {
		switch calls.Add(1) {
		case 1:
			return 0, errors.New("first failed")
		case 2:
			close(started)
			<-ctx.Done()
			return 0, ctx.Err()
		default:
			return 3, nil
		}
	}, nil)
	defer op.Close()

	recv(t, op.Initial())
	if op.Result().Err == nil {
		t.Fatalf("first run should record its error")
	}

	second := op.Reload()
	<-started
	if r := op.Result(); r.Err != nil || !r.IsLoading {
		t.Fatalf("reload should clear error and be loading: %+v", r)
	}

	third := op.Reload()
	if o := recv(t, second); !o.Canceled || o.Err != nil {
		t.Fatalf("superseded run should be canceled silently: %+v", o)
	}
	if o := recv(t, third); o.Value != 3 {
		t.Fatalf("third run: %+v", o)
	}
	if r := op.Result(); r.Err != nil || r.Data != 3 {
		t.Fatalf("result: %+v", r)
	}
}

func TestOperationCloseCancels(t *testing.T) {
	started := make(chan struct{})
	op := NewOperation(context.Background(), func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	}, nil)
	<-started
	op.Close()

	if o := recv(t, op.Initial()); !o.Canceled {
		t.Fatalf("close should cancel: %+v", o)
	}
	if r := op.Result(); r.Err != nil || r.HasData {
		t.Fatalf("cancellation must not surface: %+v", r)
	}
	if o := recv(t, op.Reload()); !o.Canceled {
		t.Fatalf("reload after close: %+v", o)
	}
}

func TestOperationNilOp(t *testing.T) {
	op := NewOperation[int](context.Background(), nil, nil)
	defer op.Close()
	if o := recv(t, op.Initial()); !errors.Is(o.Err, ErrNilFetcher) {
		t.Fatalf("outcome: %+v", o)
	}
}

func TestOperationLateRunDoesNotOverwriteReload(t *testing.T) {
	op := NewOperation(context.Background(), func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}, nil)
	defer op.Close()

	second := op.Reload()
	// the first run finishing uncanceled after the reload cleared the error
	op.settle(1, Outcome[int]{Err: errors.New("first failed")})
	op.settle(1, Outcome[int]{Value: 9})
	if r := op.Result(); r.Err != nil || r.HasData || !r.IsLoading {
		t.Fatalf("superseded run leaked into state: %+v", r)
	}

	op.settle(2, Outcome[int]{Value: 3})
	if r := op.Result(); r.Data != 3 || !r.HasData {
		t.Fatalf("current run should settle: %+v", r)
	}
	op.Close()
	recv(t, second)
}
