package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errProvider = errors.New("provider exploded")

// newTestBreaker returns a breaker with a controllable clock.
func newTestBreaker(threshold int, recovery time.Duration) (*Breaker, *time.Time) {
	b := NewBreaker(BreakerConfig{
		FailureThreshold: threshold,
		RecoveryTimeout:  recovery,
	})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreaker_OpensAtFailureThreshold(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		err := b.Call(func() error { return errProvider })
		assert.ErrorIs(t, err, errProvider)
	}

	status := b.Status()
	assert.Equal(t, StateOpen, status.State)
	assert.Equal(t, 3, status.FailureCount)
	require.NotNil(t, status.LastFailureAt)
}

func TestBreaker_FailsFastWhileOpen(t *testing.T) {
	t.Parallel()

	b, now := newTestBreaker(3, time.Minute)
	for i := 0; i < 3; i++ {
		_ = b.Call(func() error { return errProvider })
	}

	// Still inside the recovery window: the wrapped function must not run.
	*now = now.Add(30 * time.Second)
	invoked := false
	err := b.Call(func() error {
		invoked = true
		return nil
	})

	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, invoked)
	assert.Equal(t, StateOpen, b.Status().State)
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	t.Parallel()

	t.Run("successful probe closes and resets", func(t *testing.T) {
		t.Parallel()

		b, now := newTestBreaker(3, time.Minute)
		for i := 0; i < 3; i++ {
			_ = b.Call(func() error { return errProvider })
		}

		*now = now.Add(time.Minute + time.Second)
		err := b.Call(func() error { return nil })

		require.NoError(t, err)
		status := b.Status()
		assert.Equal(t, StateClosed, status.State)
		assert.Equal(t, 0, status.FailureCount)
	})

	t.Run("failed probe reopens immediately", func(t *testing.T) {
		t.Parallel()

		b, now := newTestBreaker(3, time.Minute)
		for i := 0; i < 3; i++ {
			_ = b.Call(func() error { return errProvider })
		}

		*now = now.Add(time.Minute + time.Second)
		err := b.Call(func() error { return errProvider })
		assert.ErrorIs(t, err, errProvider)
		assert.Equal(t, StateOpen, b.Status().State)

		// A fresh recovery window started at the probe failure.
		invoked := false
		err = b.Call(func() error {
			invoked = true
			return nil
		})
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.False(t, invoked)
	})

	t.Run("only one probe admitted at a time", func(t *testing.T) {
		t.Parallel()

		b, now := newTestBreaker(3, time.Minute)
		for i := 0; i < 3; i++ {
			_ = b.Call(func() error { return errProvider })
		}
		*now = now.Add(time.Minute + time.Second)

		probeStarted := make(chan struct{})
		release := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Call(func() error {
				close(probeStarted)
				<-release
				return nil
			})
		}()

		<-probeStarted
		// While the probe is in flight every other caller fails fast.
		err := b.Call(func() error { return nil })
		assert.ErrorIs(t, err, ErrCircuitOpen)

		close(release)
		wg.Wait()
		assert.Equal(t, StateClosed, b.Status().State)
	})
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(3, time.Minute)

	_ = b.Call(func() error { return errProvider })
	_ = b.Call(func() error { return errProvider })
	require.NoError(t, b.Call(func() error { return nil }))

	// The streak was broken; two more failures must not open the breaker.
	_ = b.Call(func() error { return errProvider })
	_ = b.Call(func() error { return errProvider })
	assert.Equal(t, StateClosed, b.Status().State)
}

func TestBreaker_Reset(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(2, time.Minute)
	_ = b.Call(func() error { return errProvider })
	_ = b.Call(func() error { return errProvider })
	require.Equal(t, StateOpen, b.Status().State)

	b.Reset()

	status := b.Status()
	assert.Equal(t, StateClosed, status.State)
	assert.Equal(t, 0, status.FailureCount)
	assert.Nil(t, status.LastFailureAt)
	assert.NoError(t, b.Call(func() error { return nil }))
}

func TestBreaker_ConcurrentCallersSeeConsistentState(t *testing.T) {
	t.Parallel()

	b, _ := newTestBreaker(5, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = b.Call(func() error { return errProvider })
		}()
	}
	wg.Wait()

	status := b.Status()
	assert.Equal(t, StateOpen, status.State)
	assert.GreaterOrEqual(t, status.FailureCount, 5)
}
