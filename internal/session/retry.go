// internal/session/retry.go
package session

import (
	"context"
	"time"
)

// RetryPolicy is a bounded fixed-delay retry loop. The awaited condition
// (the host page finishing its own render) resolves within a few hundred
// milliseconds to a few seconds or not at all, so there is no backoff:
// a fixed delay and a hard attempt cap, then give up.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy matches the data-readiness loop tuning.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, Delay: 500 * time.Millisecond}
}

// Do runs attempt until it succeeds, the attempts are exhausted, or the
// context is canceled. The last error is returned on give-up. A policy is
// a value: every Do call is an independent, restartable run.
func (p RetryPolicy) Do(ctx context.Context, attempt func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = attempt(ctx)
		if lastErr == nil {
			return nil
		}

		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.Delay):
			}
		}
	}
	return lastErr
}
