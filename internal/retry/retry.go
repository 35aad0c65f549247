// Package retry runs an operation with exponential backoff on transient errors.
//
// The executor is stateless and safe for concurrent use. Each call carries its
// own Policy, so one Scanner can share a single policy across all targets.
package retry

import (
	"context"
	"time"
)

// timeSleep is a wrapper for time.After that can be overridden in tests.
//
//nolint:gochecknoglobals // Required for test mocking
var timeSleep = func(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// Policy controls how many times and how slowly an operation is retried.
type Policy struct {
	// MaxRetries is the number of additional attempts after the first.
	MaxRetries int

	// BaseDelay is the wait before the first retry. It doubles on every retry.
	BaseDelay time.Duration
}

// Delay returns the backoff before retry number attempt (0-based):
// BaseDelay, 2*BaseDelay, 4*BaseDelay, and so on.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return p.BaseDelay << uint(attempt) //nolint:gosec // attempt is bounded by MaxRetries
}

// Op is one attempt of the operation. attempt is 0 on the first call.
type Op[T any] func(ctx context.Context, attempt int) (T, error)

// OnRetry is called before each backoff wait. attempt starts at 1.
type OnRetry func(attempt int, err error, delay time.Duration)

// Do calls op until it succeeds, fails with a non-transient error, or the
// retry budget is spent. On exhaustion the last error is returned as-is.
// If ctx is canceled during a backoff wait, ctx.Err() is returned.
func Do[T any](ctx context.Context, op Op[T], policy Policy, onRetry OnRetry) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		result, err := op(ctx, attempt)
		if err == nil {
			return result, nil
		}

		if !IsTransient(err) || attempt >= policy.MaxRetries {
			return zero, err
		}

		delay := policy.Delay(attempt)
		if onRetry != nil {
			onRetry(attempt+1, err, delay)
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-timeSleep(delay):
		}
	}
}
