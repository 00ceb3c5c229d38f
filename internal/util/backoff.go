package util

import (
	"context"
	"errors"
	"time"
)

// BackoffPolicy controls RetryBackoff. Delays start at BaseDelay and
// double after every failed attempt, capped at MaxDelay.
type BackoffPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Sleep is swappable for tests; nil means time.Sleep.
	Sleep func(time.Duration)
}

// DefaultBackoff mirrors the provider rate-limit policy used by the AI
// clients: 5 attempts, 1s base delay, 60s cap.
func DefaultBackoff() BackoffPolicy {
	return BackoffPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    60 * time.Second,
	}
}

// RetryBackoff calls fn until it succeeds, the error is not retryable,
// the attempts are exhausted, or ctx is done. retryable decides whether
// an error is transient; a nil retryable retries everything.
func RetryBackoff[T any](
	ctx context.Context,
	policy BackoffPolicy,
	retryable func(error) bool,
	fn func(context.Context) (T, error),
) (T, error) {
	var zero T

	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	delay := policy.BaseDelay
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if attempt > 0 {
			sleep(delay)
			delay *= 2
			if policy.MaxDelay > 0 && delay > policy.MaxDelay {
				delay = policy.MaxDelay
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return zero, err
		}
		if retryable != nil && !retryable(err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}

// RetryBackoffErr is RetryBackoff for functions that only return an error.
func RetryBackoffErr(
	ctx context.Context,
	policy BackoffPolicy,
	retryable func(error) bool,
	fn func(context.Context) error,
) error {
	_, err := RetryBackoff(ctx, policy, retryable, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
