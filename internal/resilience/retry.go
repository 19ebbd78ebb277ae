package resilience

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// RetryConfig holds configuration for the retry-with-backoff mechanism.
type RetryConfig struct {
	// MaxAttempts is the total number of calls made to the wrapped function,
	// including the first one. If zero or negative, defaults to 3.
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration

	// ExponentialBase is the backoff multiplier per attempt. If <= 1,
	// defaults to 2.
	ExponentialBase float64

	// Jitter randomizes each delay by a multiplicative factor in [0.5, 1.0].
	Jitter bool
}

// DefaultRetryConfig returns a RetryConfig with reasonable defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:     3,
		BaseDelay:       1 * time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2,
		Jitter:          true,
	}
}

// retrier runs a function up to MaxAttempts times with exponential backoff
// between attempts. It does not classify errors: every failure, including
// ErrCircuitOpen from the breaker underneath it, is retried until the
// attempts are exhausted, so a sustained outage shows up as fast-failing
// attempts spaced by backoff rather than being short-circuited.
type retrier struct {
	cfg    RetryConfig
	logger *slog.Logger

	// sleep is replaceable in tests to observe computed delays.
	sleep func(ctx context.Context, d time.Duration) error
}

func newRetrier(cfg RetryConfig, logger *slog.Logger) *retrier {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 1 * time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 60 * time.Second
	}
	if cfg.ExponentialBase <= 1 {
		cfg.ExponentialBase = 2
	}
	return &retrier{
		cfg:    cfg,
		logger: logger,
		sleep:  sleepContext,
	}
}

// do executes fn until it succeeds or attempts are exhausted, returning the
// last error. Context cancellation during a backoff delay aborts the loop.
func (r *retrier) do(ctx context.Context, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == r.cfg.MaxAttempts-1 {
			r.logger.Error("final attempt failed",
				"operation", operation,
				"attempt", attempt+1,
				"error", lastErr)
			return lastErr
		}

		delay := r.delayFor(attempt)
		r.logger.Warn("attempt failed, retrying",
			"operation", operation,
			"attempt", attempt+1,
			"delay", delay,
			"error", lastErr)

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// delayFor computes the backoff delay after the given zero-based attempt:
// min(baseDelay * exponentialBase^attempt, maxDelay), optionally scaled by a
// jitter factor in [0.5, 1.0].
func (r *retrier) delayFor(attempt int) time.Duration {
	backoff := float64(r.cfg.BaseDelay) * math.Pow(r.cfg.ExponentialBase, float64(attempt))
	if backoff > float64(r.cfg.MaxDelay) {
		backoff = float64(r.cfg.MaxDelay)
	}
	if r.cfg.Jitter {
		// The package-level source is safe for concurrent workers.
		backoff *= 0.5 + rand.Float64()*0.5
	}
	return time.Duration(backoff)
}

// sleepContext waits for the delay or context cancellation, whichever comes
// first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
