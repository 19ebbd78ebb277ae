package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// maxRecordsPerCategory bounds the error statistics table: only the most
// recent entries per category are retained.
const maxRecordsPerCategory = 100

// ErrorRecord is one entry in the error statistics table.
type ErrorRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Operation string    `json:"operation"`
	Error     string    `json:"error"`
}

// CategoryStats summarizes recorded failures for one error category. Count is
// cumulative; Recent holds at most the last maxRecordsPerCategory records.
type CategoryStats struct {
	Count          int           `json:"count"`
	LastOccurrence time.Time     `json:"last_occurrence"`
	Recent         []ErrorRecord `json:"recent"`
}

// Handler owns the resilience machinery for a set of named operations: one
// circuit breaker per operation name, a shared retry policy, and the error
// statistics table. It is an explicit dependency injected into the
// orchestrator rather than a process-wide singleton, so tests can create
// isolated instances.
type Handler struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	stats    map[string]*CategoryStats

	breakerCfg BreakerConfig
	retry      *retrier
	categorize func(error) string
	logger     *slog.Logger
}

// NewHandler creates a Handler with the given breaker and retry
// configuration. categorize maps errors to statistics categories; if nil,
// every failure lands in a single "error" category.
func NewHandler(
	breakerCfg BreakerConfig,
	retryCfg RetryConfig,
	categorize func(error) string,
	logger *slog.Logger,
) *Handler {
	if categorize == nil {
		categorize = func(error) string { return "error" }
	}
	return &Handler{
		breakers:   make(map[string]*Breaker),
		stats:      make(map[string]*CategoryStats),
		breakerCfg: breakerCfg,
		retry:      newRetrier(retryCfg, logger),
		categorize: categorize,
		logger:     logger,
	}
}

// Protect executes fn for the named operation through the full wrapper
// chain, applied innermost to outermost: error recording, circuit breaker,
// retry. Every failure is recorded, including fast-fail ErrCircuitOpen
// rejections, and the retry loop treats all of them alike.
func (h *Handler) Protect(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	breaker := h.Breaker(operation)

	recorded := func() error {
		err := fn(ctx)
		if err != nil {
			h.record(operation, err)
		}
		return err
	}

	guarded := func() error {
		err := breaker.Call(recorded)
		if errors.Is(err, ErrCircuitOpen) {
			// The wrapped function never ran; record the rejection itself.
			h.record(operation, err)
		}
		return err
	}

	return h.retry.do(ctx, operation, guarded)
}

// Breaker returns the circuit breaker for the named operation, creating it
// on first use. All callers of the same operation share one breaker.
func (h *Handler) Breaker(operation string) *Breaker {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.breakers[operation]
	if !ok {
		b = NewBreaker(h.breakerCfg)
		h.breakers[operation] = b
	}
	return b
}

// ResetBreaker resets the breaker for the named operation, if one exists.
func (h *Handler) ResetBreaker(operation string) {
	h.mu.Lock()
	b, ok := h.breakers[operation]
	h.mu.Unlock()

	if ok {
		b.Reset()
		h.logger.Info("circuit breaker reset", "operation", operation)
	}
}

// BreakerStatuses returns a snapshot of every known breaker, keyed by
// operation name.
func (h *Handler) BreakerStatuses() map[string]BreakerStatus {
	h.mu.Lock()
	defer h.mu.Unlock()

	statuses := make(map[string]BreakerStatus, len(h.breakers))
	for name, b := range h.breakers {
		statuses[name] = b.Status()
	}
	return statuses
}

// record adds a failure to the statistics table under its category, dropping
// the oldest entries beyond the per-category bound.
func (h *Handler) record(operation string, err error) {
	category := h.categorize(err)
	now := time.Now().UTC()

	h.mu.Lock()
	defer h.mu.Unlock()

	stats, ok := h.stats[category]
	if !ok {
		stats = &CategoryStats{}
		h.stats[category] = stats
	}

	stats.Count++
	stats.LastOccurrence = now
	stats.Recent = append(stats.Recent, ErrorRecord{
		Timestamp: now,
		Operation: operation,
		Error:     err.Error(),
	})
	if len(stats.Recent) > maxRecordsPerCategory {
		stats.Recent = stats.Recent[len(stats.Recent)-maxRecordsPerCategory:]
	}
}

// ErrorStats returns a deep copy of the error statistics table.
func (h *Handler) ErrorStats() map[string]CategoryStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]CategoryStats, len(h.stats))
	for category, stats := range h.stats {
		copied := *stats
		copied.Recent = append([]ErrorRecord(nil), stats.Recent...)
		out[category] = copied
	}
	return out
}
