package orchestrator

import (
	"context"
	"time"
)

// retryConfig bounds the exponential backoff used for upstream I/O
// (TracingProvider calls), per spec.md §7's "retried with exponential
// backoff up to a bounded attempt count; exhaustion is fatal for the
// block". No retry library appears anywhere in the retrieved pack (see
// DESIGN.md), so this is a small hand-rolled helper rather than an
// out-of-pack dependency.
type retryConfig struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

var defaultRetry = retryConfig{
	maxAttempts: 5,
	baseDelay:   200 * time.Millisecond,
	maxDelay:    10 * time.Second,
}

// withRetry calls fn until it succeeds, ctx is cancelled, or the configured
// attempt count is exhausted, doubling the delay between attempts (capped
// at maxDelay). The final error is returned unwrapped so callers can test
// it with errors.Is against whatever fn returned.
func withRetry(ctx context.Context, cfg retryConfig, fn func() error) error {
	delay := cfg.baseDelay
	var err error
	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == cfg.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > cfg.maxDelay {
			delay = cfg.maxDelay
		}
	}
	return err
}
