package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/CC-ZeroSignal-AI/zerosignal-web/internal/core/domain"
)

func TestRetryDelay(t *testing.T) {
	base := 200 * time.Millisecond
	assert.Equal(t, base, retryDelay(base, 0))
	assert.Equal(t, 400*time.Millisecond, retryDelay(base, 1))
	assert.Equal(t, 3200*time.Millisecond, retryDelay(base, 4))
	assert.Equal(t, maxRetryDelay, retryDelay(base, 5))
	assert.Equal(t, maxRetryDelay, retryDelay(base, 70))
	assert.Zero(t, retryDelay(0, 3))
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		retries   int
		wantCalls int
		wantErr   error
	}{
		{"success first try", []error{nil}, 3, 1, nil},
		{"transient then success", []error{domain.ErrStoreUnavailable, nil}, 3, 2, nil},
		{"retries exhausted", []error{domain.ErrEmbeddingFailure, domain.ErrEmbeddingFailure, domain.ErrEmbeddingFailure}, 2, 3, domain.ErrEmbeddingFailure},
		{"auth not retried", []error{domain.ErrStoreAuth}, 3, 1, domain.ErrStoreAuth},
		{"config not retried", []error{domain.ErrConfig}, 3, 1, domain.ErrConfig},
		{"zero retries", []error{domain.ErrStoreUnavailable}, 0, 1, domain.ErrStoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := withRetry(context.Background(), tt.retries, time.Microsecond, func(context.Context) error {
				e := tt.errs[min(calls, len(tt.errs)-1)]
				calls++
				return e
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := withRetry(ctx, 5, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return domain.ErrStoreUnavailable
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestWithTimeout(t *testing.T) {
	err := withTimeout(context.Background(), time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.True(t, domain.IsRetryable(err))

	err = withTimeout(context.Background(), 0, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		return nil
	})
	assert.NoError(t, err)
}
