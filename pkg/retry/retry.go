// Package retry runs an operation under an attempt-counted policy with
// backoff waits that abort on context cancellation.
package retry

import (
	"context"
	"errors"
	"time"
)

const (
	defaultMaxAttempts    = 3
	defaultInitialBackoff = time.Second
	defaultMaximumBackoff = 4 * time.Second
)

// BackoffFunc returns the wait before the given attempt (2 for the first retry).
type BackoffFunc func(attempt int) time.Duration

// WaitFunc blocks for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Policy controls how many times an operation runs and which errors are retried.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffFunc
	// Retryable classifies a failure. Nil means nothing is retried.
	Retryable func(error) bool
	// Wait defaults to a timer that honours ctx.
	Wait WaitFunc
}

// ErrNoAttempts is returned when the context is already done before the
// first attempt.
var ErrNoAttempts = errors.New("retry: context done before first attempt")

// Exponential doubles the initial wait per retry, capped at max:
// initial, 2*initial, 4*initial, ...
func Exponential(initial, max time.Duration) BackoffFunc {
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	if max < initial {
		max = initial
	}
	return func(attempt int) time.Duration {
		d := initial
		for i := 2; i < attempt; i++ {
			d *= 2
			if d >= max {
				return max
			}
		}
		return d
	}
}

// Default is three attempts with 1s/2s/4s exponential backoff.
func Default(retryable func(error) bool) Policy {
	return Policy{
		MaxAttempts: defaultMaxAttempts,
		Backoff:     Exponential(defaultInitialBackoff, defaultMaximumBackoff),
		Retryable:   retryable,
	}
}

// Do runs fn until it succeeds, returns a non-retryable error, or the attempt
// budget is spent. It reports how many attempts ran alongside the final error.
// A cancelled context during a wait returns ctx.Err().
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = Exponential(defaultInitialBackoff, defaultMaximumBackoff)
	}
	wait := p.Wait
	if wait == nil {
		wait = sleep
	}

	if ctx.Err() != nil {
		return 0, errors.Join(ErrNoAttempts, ctx.Err())
	}

	attempts := 0
	for {
		err := fn(ctx)
		attempts++
		if err == nil {
			return attempts, nil
		}
		if attempts >= maxAttempts || p.Retryable == nil || !p.Retryable(err) {
			return attempts, err
		}
		if werr := wait(ctx, backoff(attempts+1)); werr != nil {
			return attempts, werr
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
