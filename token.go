package querycache

import "context"

// Token is a cooperative cancellation signal for one attempt.
// Fetchers receive Context(); the owner calls Cancel.
type Token struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// NewToken derives a token from parent. A nil parent means Background.
func NewToken(parent context.Context) *Token {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	return &Token{ctx: ctx, cancel: cancel}
}

func (t *Token) Context() context.Context { return t.ctx }
func (t *Token) Done() <-chan struct{}    { return t.ctx.Done() }

// Cancel fires the signal. Repeated calls are no-ops.
func (t *Token) Cancel() { t.cancel(ErrCanceled) }

// Canceled reports whether the signal fired, directly or through the parent.
func (t *Token) Canceled() bool { return t.ctx.Err() != nil }

// Err is nil until the token is canceled, then an error matching ErrCanceled.
func (t *Token) Err() error {
	if t.ctx.Err() == nil {
		return nil
	}
	return canceled(t.ctx)
}
