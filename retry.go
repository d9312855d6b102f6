package ygggo_db

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy controls how Setup retries a failed connect.
// The zero value makes a single attempt.
type RetryPolicy struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseBackoff time.Duration `mapstructure:"base_backoff"`
	MaxBackoff  time.Duration `mapstructure:"max_backoff"`
	Jitter      bool          `mapstructure:"jitter"`
	MaxElapsed  time.Duration `mapstructure:"max_elapsed"`
}

func (pol RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	if pol.MaxAttempts <= 0 { pol.MaxAttempts = 1 }
	if pol.BaseBackoff <= 0 { pol.BaseBackoff = 10 * time.Millisecond }
	if pol.MaxBackoff <= 0 { pol.MaxBackoff = pol.BaseBackoff }

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = pol.BaseBackoff
	eb.MaxInterval = pol.MaxBackoff
	eb.MaxElapsedTime = pol.MaxElapsed
	if !pol.Jitter {
		eb.RandomizationFactor = 0
	}
	eb.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(pol.MaxAttempts-1)), ctx)
}

// retryWithPolicy retries op according to policy. An error retryable rejects
// stops the loop at once.
func retryWithPolicy(ctx context.Context, pol RetryPolicy, op func() error, retryable func(error) bool) error {
	return backoff.Retry(func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		err := op()
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, pol.backOff(ctx))
}
