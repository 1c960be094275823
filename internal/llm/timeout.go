package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is matched by every *TimeoutError.
var ErrTimeout = errors.New("operation timed out")

// TimeoutError reports an external call that exceeded its time budget.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.After)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// TimeoutProvider bounds every completion with a deadline.
type TimeoutProvider struct {
	provider Provider
	timeout  time.Duration
}

// WithTimeout wraps provider so each Complete call gets at most d. A
// non-positive d returns provider unchanged.
func WithTimeout(provider Provider, d time.Duration) Provider {
	if d <= 0 {
		return provider
	}
	return &TimeoutProvider{provider: provider, timeout: d}
}

func (t *TimeoutProvider) Name() string {
	return t.provider.Name()
}

func (t *TimeoutProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var resp *CompletionResponse
	err := RunWithTimeout(ctx, t.timeout, t.provider.Name()+" completion", func(ctx context.Context) error {
		var err error
		resp, err = t.provider.Complete(ctx, req)
		return err
	})
	return resp, err
}

// ListModels forwards to the wrapped provider when it supports listing.
func (t *TimeoutProvider) ListModels(ctx context.Context) ([]string, error) {
	lister, ok := t.provider.(ModelLister)
	if !ok {
		return nil, fmt.Errorf("provider %s cannot list models", t.provider.Name())
	}
	return lister.ListModels(ctx)
}

// RunWithTimeout runs fn under a deadline of d. When the deadline (and not
// the parent context) expires, the error is a *TimeoutError naming op.
func RunWithTimeout(ctx context.Context, d time.Duration, op string, fn func(ctx context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := fn(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Op: op, After: d}
	}
	return err
}
