// Package metrics exposes Prometheus instrumentation for the batch engine.
// Collectors are owned by a Metrics value registered on an injected
// registerer, not by package-level state, so tests and embedders get
// isolated instances. The engine never serves the metrics itself; the
// embedding process decides whether and how to expose the registry.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Label values for synthesis outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"

	LookupHit  = "hit"
	LookupMiss = "miss"
)

// Metrics holds the engine's collectors.
type Metrics struct {
	synthesisTotal *prometheus.CounterVec
	cacheLookups   *prometheus.CounterVec
	breakerState   *prometheus.GaugeVec
	batchesTotal   prometheus.Counter
}

// New creates the collectors and registers them on reg. A nil reg registers
// on a private throwaway registry, which keeps callers that don't care about
// metrics free of nil checks.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		synthesisTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batchvox_synthesis_items_total",
				Help: "Total number of work items processed, by outcome.",
			},
			[]string{"outcome"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batchvox_cache_lookups_total",
				Help: "Total number of result cache lookups, by result.",
			},
			[]string{"result"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "batchvox_circuit_breaker_open",
				Help: "Whether the circuit breaker for an operation is open (1) or closed/half-open (0).",
			},
			[]string{"operation"},
		),
		batchesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "batchvox_batches_total",
				Help: "Total number of batches executed.",
			},
		),
	}

	reg.MustRegister(m.synthesisTotal, m.cacheLookups, m.breakerState, m.batchesTotal)

	// Pre-initialize label combinations so they report 0 from startup.
	m.synthesisTotal.WithLabelValues(OutcomeSuccess)
	m.synthesisTotal.WithLabelValues(OutcomeFailed)
	m.cacheLookups.WithLabelValues(LookupHit)
	m.cacheLookups.WithLabelValues(LookupMiss)

	return m
}

// ItemProcessed records the outcome of one work item.
func (m *Metrics) ItemProcessed(outcome string) {
	m.synthesisTotal.WithLabelValues(outcome).Inc()
}

// CacheLookup records a cache hit or miss.
func (m *Metrics) CacheLookup(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

// BreakerOpen sets the open gauge for an operation's breaker.
func (m *Metrics) BreakerOpen(operation string, open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	m.breakerState.WithLabelValues(operation).Set(v)
}

// BatchExecuted counts one executed batch.
func (m *Metrics) BatchExecuted() {
	m.batchesTotal.Inc()
}
