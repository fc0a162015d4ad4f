package ai

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/timeout"
	"github.com/felixgeelhaar/smarttodo/pkg/domain/ai"
)

// DefaultAttemptTimeout bounds a single completion call.
const DefaultAttemptTimeout = 30 * time.Second

// TimeoutProvider bounds every completion call by a fixed duration. It never
// retries; a timed out call is reported as an error like any other failure.
type TimeoutProvider struct {
	inner   ai.Provider
	timeout time.Duration
}

// NewTimeoutProvider wraps inner. A non-positive d uses DefaultAttemptTimeout.
func NewTimeoutProvider(inner ai.Provider, d time.Duration) *TimeoutProvider {
	if d <= 0 {
		d = DefaultAttemptTimeout
	}
	return &TimeoutProvider{inner: inner, timeout: d}
}

func (p *TimeoutProvider) ID() string {
	return p.inner.ID()
}

// Timeout returns the per-call bound.
func (p *TimeoutProvider) Timeout() time.Duration {
	return p.timeout
}

func (p *TimeoutProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	t := timeout.New[*ai.CompletionResponse](timeout.Config{
		DefaultTimeout: p.timeout,
	})

	return t.Execute(ctx, p.timeout, func(ctx context.Context) (*ai.CompletionResponse, error) {
		return p.inner.Complete(ctx, req)
	})
}
