package querycache

import (
	"context"
	"sync"
)

// OperationResult is the state of a non-cached operation.
type OperationResult[V any] struct {
	Data      V
	HasData   bool
	Err       error
	IsLoading bool
}

// Operation is the cache-less sibling of Query: every Reload calls op again,
// with no retry and no sharing between operations. A reload cancels the
// attempt it supersedes, and Close cancels whatever is outstanding.
type Operation[V any] struct {
	op       Fetcher[V]
	ctx      context.Context
	stop     context.CancelFunc
	runner   Runner[V]
	onChange func()
	once     sync.Once

	mu      sync.Mutex
	seq     uint64 // bumped by every Reload; only the latest run settles
	data    V
	hasData bool
	err     error

	initial <-chan Outcome[V]
}

// NewOperation starts op immediately. onChange may be nil.
func NewOperation[V any](parent context.Context, op Fetcher[V], onChange func()) *Operation[V] {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := context.WithCancel(parent)
	o := &Operation[V]{op: op, ctx: ctx, stop: stop, onChange: onChange}
	o.initial = o.Reload()
	context.AfterFunc(ctx, o.Close)
	return o
}

// Initial delivers the outcome of the run started by NewOperation.
func (o *Operation[V]) Initial() <-chan Outcome[V] { return o.initial }

// Reload cancels the outstanding run, clears the error and starts a new run.
// The channel receives exactly one outcome.
func (o *Operation[V]) Reload() <-chan Outcome[V] {
	out := make(chan Outcome[V], 1)
	if o.op == nil {
		out <- Outcome[V]{Err: ErrNilFetcher}
		return out
	}
	tok := o.runner.begin(o.ctx)
	if tok == nil {
		out <- Outcome[V]{Canceled: true}
		return out
	}
	o.mu.Lock()
	o.seq++
	seq := o.seq
	o.err = nil
	o.mu.Unlock()
	o.changed()

	go func() {
		v, err := o.op(tok.Context())
		res := o.runner.finish(tok, v, err)
		o.settle(seq, res)
		o.changed()
		out <- res
	}()
	return out
}

// settle records the outcome of run seq unless a later Reload started.
func (o *Operation[V]) settle(seq uint64, res Outcome[V]) {
	if res.Canceled {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if seq != o.seq {
		return
	}
	if res.Err != nil {
		o.err = res.Err
	} else {
		o.data = res.Value
		o.hasData = true
	}
}

func (o *Operation[V]) Result() OperationResult[V] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return OperationResult[V]{
		Data:      o.data,
		HasData:   o.hasData,
		Err:       o.err,
		IsLoading: o.runner.Loading(),
	}
}

// Close cancels the outstanding run. Later reloads report Canceled.
func (o *Operation[V]) Close() {
	o.once.Do(func() {
		o.runner.Close()
		o.stop()
	})
}

func (o *Operation[V]) changed() {
	if o.onChange != nil && o.ctx.Err() == nil {
		o.onChange()
	}
}
