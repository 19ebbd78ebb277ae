package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by Breaker.Call when the breaker rejects the
// call without invoking the wrapped function.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerState represents the state of a circuit breaker.
type BreakerState string

// Circuit breaker states
const (
	StateClosed   BreakerState = "CLOSED"
	StateOpen     BreakerState = "OPEN"
	StateHalfOpen BreakerState = "HALF_OPEN"
)

// BreakerConfig holds configuration for a circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the
	// breaker. If zero or negative, defaults to 5.
	FailureThreshold int

	// RecoveryTimeout is how long the breaker stays open before admitting a
	// probe call. If zero, defaults to 60 seconds.
	RecoveryTimeout time.Duration
}

// DefaultBreakerConfig returns a BreakerConfig with reasonable defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
	}
}

// BreakerStatus is a point-in-time snapshot of a breaker, queried on demand.
type BreakerStatus struct {
	State         BreakerState `json:"state"`
	FailureCount  int          `json:"failure_count"`
	LastFailureAt *time.Time   `json:"last_failure_at,omitempty"`
}

// Breaker implements the circuit breaker pattern for a single named
// operation. All state is guarded by one mutex, so concurrent callers
// observe consistent transitions.
//
// The half-open rule is explicit: after the recovery timeout elapses, exactly
// one call is admitted as a probe. A successful probe resets the failure
// count and closes the breaker; a failed probe reopens it immediately.
type Breaker struct {
	mu sync.Mutex

	cfg           BreakerConfig
	state         BreakerState
	failureCount  int
	lastFailureAt time.Time
	probeInFlight bool

	// now is replaceable in tests to control recovery timing.
	now func() time.Time
}

// NewBreaker creates a circuit breaker in the CLOSED state.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	return &Breaker{
		cfg:   cfg,
		state: StateClosed,
		now:   time.Now,
	}
}

// Call executes fn under breaker protection. While OPEN it fails fast with
// ErrCircuitOpen until the recovery timeout has elapsed; the first call after
// that is admitted as the half-open probe. fn runs outside the breaker lock.
func (b *Breaker) Call(fn func() error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}

	err = fn()
	b.settle(probe, err)
	return err
}

// admit decides whether the call may proceed and whether it is the half-open
// probe.
func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.lastFailureAt) <= b.cfg.RecoveryTimeout {
			return false, ErrCircuitOpen
		}
		b.state = StateHalfOpen
		b.probeInFlight = true
		return true, nil

	case StateHalfOpen:
		// Only one probe at a time; everyone else fails fast.
		if b.probeInFlight {
			return false, ErrCircuitOpen
		}
		b.probeInFlight = true
		return true, nil

	default:
		return false, nil
	}
}

// settle records the outcome of an admitted call.
func (b *Breaker) settle(probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if probe {
		b.probeInFlight = false
		if err == nil {
			b.state = StateClosed
			b.failureCount = 0
			return
		}
		// Failed probe reopens immediately, restamping the failure time so a
		// fresh recovery window starts.
		b.state = StateOpen
		b.failureCount++
		b.lastFailureAt = b.now()
		return
	}

	if err == nil {
		b.failureCount = 0
		return
	}

	b.failureCount++
	b.lastFailureAt = b.now()
	if b.state == StateClosed && b.failureCount >= b.cfg.FailureThreshold {
		b.state = StateOpen
	}
}

// Status returns a snapshot of the breaker state. This replaces any form of
// background status logging: callers poll it when they want visibility.
func (b *Breaker) Status() BreakerStatus {
	b.mu.Lock()
	defer b.mu.Unlock()

	status := BreakerStatus{
		State:        b.state,
		FailureCount: b.failureCount,
	}
	if !b.lastFailureAt.IsZero() {
		t := b.lastFailureAt
		status.LastFailureAt = &t
	}
	return status
}

// Reset forces the breaker back to CLOSED with a zeroed failure count.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failureCount = 0
	b.lastFailureAt = time.Time{}
	b.probeInFlight = false
}
