package ygggo_db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetry_SucceedsAfterRetryableErrors(t *testing.T) {
	attempts := 0
	pol := RetryPolicy{MaxAttempts: 5, BaseBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	err := retryWithPolicy(context.Background(), pol, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, func(error) bool { return true })
	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_StopsOnNonRetryable(t *testing.T) {
	attempts := 0
	fatal := errors.New("access denied")
	pol := RetryPolicy{MaxAttempts: 5, BaseBackoff: time.Millisecond}
	err := retryWithPolicy(context.Background(), pol, func() error {
		attempts++
		return fatal
	}, func(error) bool { return false })
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, attempts)
}

func TestRetry_HonorsMaxAttempts(t *testing.T) {
	attempts := 0
	pol := RetryPolicy{MaxAttempts: 3, BaseBackoff: time.Millisecond, Jitter: true}
	err := retryWithPolicy(context.Background(), pol, func() error {
		attempts++
		return errors.New("transient")
	}, func(error) bool { return true })
	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_ZeroPolicyIsSingleAttempt(t *testing.T) {
	attempts := 0
	_ = retryWithPolicy(context.Background(), RetryPolicy{}, func() error {
		attempts++
		return errors.New("transient")
	}, func(error) bool { return true })
	assert.Equal(t, 1, attempts)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	attempts := 0
	err := retryWithPolicy(ctx, RetryPolicy{MaxAttempts: 3}, func() error {
		attempts++
		return nil
	}, func(error) bool { return true })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, attempts)
}
