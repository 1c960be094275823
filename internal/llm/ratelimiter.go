package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// maxRetries bounds how often a rate-limited or failed call is repeated.
const maxRetries = 2

// RateLimitedProvider wraps a Provider with a token bucket rate limiter.
// Calls rejected with a retryable *APIError are repeated after a growing
// pause, each attempt taking a token.
type RateLimitedProvider struct {
	provider Provider
	rpm      int
	backoff  time.Duration

	mu       sync.Mutex
	tokens   int
	lastFill time.Time
}

// NewRateLimitedProvider wraps the given provider with a rate limiter
// that allows at most rpm requests per minute. A non-positive rpm
// disables limiting.
func NewRateLimitedProvider(provider Provider, rpm int) Provider {
	if rpm <= 0 {
		return provider
	}
	return &RateLimitedProvider{
		provider: provider,
		rpm:      rpm,
		backoff:  2 * time.Second,
		tokens:   rpm,
		lastFill: time.Now(),
	}
}

func (r *RateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *RateLimitedProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	for attempt := 0; ; attempt++ {
		if err := r.wait(ctx); err != nil {
			return nil, err
		}
		resp, err := r.provider.Complete(ctx, req)
		var apiErr *APIError
		if err == nil || attempt == maxRetries || !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return resp, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoff << attempt):
		}
	}
}

// ListModels is not rate limited; it forwards when the wrapped provider
// supports listing.
func (r *RateLimitedProvider) ListModels(ctx context.Context) ([]string, error) {
	lister, ok := r.provider.(ModelLister)
	if !ok {
		return nil, fmt.Errorf("provider %s cannot list models", r.provider.Name())
	}
	return lister.ListModels(ctx)
}

func (r *RateLimitedProvider) wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(r.lastFill)

		// Refill tokens based on elapsed time.
		refill := int(elapsed.Seconds() * float64(r.rpm) / 60.0)
		if refill > 0 {
			r.tokens += refill
			if r.tokens > r.rpm {
				r.tokens = r.rpm
			}
			r.lastFill = now
		}

		if r.tokens > 0 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		// Wait a short interval before retrying.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
