// Package retry provides generic retry with exponential backoff.
package retry

import (
	"context"
	"time"
)

// Config holds retry behavior configuration.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the backoff delay.
	MaxDelay time.Duration

	// Multiplier is the backoff growth factor between attempts.
	Multiplier float64
}

// DefaultConfig provides sensible defaults for transient API failures.
var DefaultConfig = Config{
	MaxAttempts:  3,
	InitialDelay: 500 * time.Millisecond,
	MaxDelay:     8 * time.Second,
	Multiplier:   2.0,
}

// WithRetry runs fn until it succeeds, the context is cancelled, shouldRetry
// returns false for the error, or MaxAttempts is exhausted. The last error
// is returned when all attempts fail.
func WithRetry[T any](ctx context.Context, config Config, shouldRetry func(error) bool, fn func() (T, error)) (T, error) {
	var zero T

	attempts := config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	delay := config.InitialDelay
	if delay <= 0 {
		delay = DefaultConfig.InitialDelay
	}

	multiplier := config.Multiplier
	if multiplier < 1 {
		multiplier = DefaultConfig.Multiplier
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if shouldRetry != nil && !shouldRetry(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}

		delay = time.Duration(float64(delay) * multiplier)
		if config.MaxDelay > 0 && delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return zero, lastErr
}
