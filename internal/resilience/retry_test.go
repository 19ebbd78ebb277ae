package resilience

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// newRecordingRetrier returns a retrier whose sleeps are captured instead of
// actually waiting.
func newRecordingRetrier(cfg RetryConfig) (*retrier, *[]time.Duration) {
	r := newRetrier(cfg, testLogger())
	delays := &[]time.Duration{}
	r.sleep = func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
	return r, delays
}

func TestRetrier_InvokesExactlyMaxAttempts(t *testing.T) {
	t.Parallel()

	r, delays := newRecordingRetrier(RetryConfig{
		MaxAttempts:     4,
		BaseDelay:       time.Second,
		MaxDelay:        time.Minute,
		ExponentialBase: 2,
	})

	calls := 0
	err := r.do(context.Background(), "always-fails", func() error {
		calls++
		return errProvider
	})

	assert.ErrorIs(t, err, errProvider)
	assert.Equal(t, 4, calls)
	assert.Len(t, *delays, 3, "no delay after the final attempt")
}

func TestRetrier_DelaysNonDecreasingUpToMaxDelay(t *testing.T) {
	t.Parallel()

	r, delays := newRecordingRetrier(RetryConfig{
		MaxAttempts:     6,
		BaseDelay:       time.Second,
		MaxDelay:        8 * time.Second,
		ExponentialBase: 2,
	})

	_ = r.do(context.Background(), "always-fails", func() error { return errProvider })

	require.Len(t, *delays, 5)
	expected := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		8 * time.Second, // capped
	}
	assert.Equal(t, expected, *delays)
}

func TestRetrier_JitterStaysWithinBounds(t *testing.T) {
	t.Parallel()

	r, delays := newRecordingRetrier(RetryConfig{
		MaxAttempts:     5,
		BaseDelay:       time.Second,
		MaxDelay:        time.Minute,
		ExponentialBase: 2,
		Jitter:          true,
	})

	_ = r.do(context.Background(), "always-fails", func() error { return errProvider })

	require.Len(t, *delays, 4)
	for attempt, d := range *delays {
		full := time.Duration(float64(time.Second) * float64(int(1)<<attempt))
		assert.GreaterOrEqual(t, d, full/2, "attempt %d below jitter floor", attempt)
		assert.LessOrEqual(t, d, full, "attempt %d above jitter ceiling", attempt)
	}
}

func TestRetrier_SuccessStopsRetrying(t *testing.T) {
	t.Parallel()

	r, delays := newRecordingRetrier(DefaultRetryConfig())

	calls := 0
	err := r.do(context.Background(), "flaky", func() error {
		calls++
		if calls < 2 {
			return errProvider
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, *delays, 1)
}

func TestRetrier_ContextCancelledDuringBackoff(t *testing.T) {
	t.Parallel()

	r := newRetrier(RetryConfig{
		MaxAttempts:     3,
		BaseDelay:       10 * time.Second,
		MaxDelay:        time.Minute,
		ExponentialBase: 2,
	}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	r.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	err := r.do(ctx, "cancelled", func() error {
		calls++
		return errProvider
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	t.Run("waits out the delay", func(t *testing.T) {
		t.Parallel()

		err := sleepContext(context.Background(), time.Millisecond)
		assert.NoError(t, err)
	})

	t.Run("aborts on cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := sleepContext(ctx, time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
