package services

import (
	"context"
	"time"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

// maxRetryDelay caps the exponential backoff between attempts.
const maxRetryDelay = 5 * time.Second

// retryDelay returns the wait before the given retry attempt (0-based).
func retryDelay(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	d := base << attempt
	if d <= 0 || d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

// withRetry calls fn until it succeeds, fails with a non-retryable error, or
// retries extra attempts have been spent. The last error is returned.
func withRetry(ctx context.Context, retries int, backoff time.Duration, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn(ctx)
		if err == nil || attempt >= retries || !domain.IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}

		timer := time.NewTimer(retryDelay(backoff, attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}

// withTimeout runs fn with a per-call deadline when timeout is positive.
func withTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(callCtx)
}
