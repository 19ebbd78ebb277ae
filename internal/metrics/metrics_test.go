package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ItemProcessed(OutcomeSuccess)
	m.ItemProcessed(OutcomeSuccess)
	m.ItemProcessed(OutcomeFailed)
	m.CacheLookup(LookupHit)
	m.CacheLookup(LookupMiss)
	m.BatchExecuted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.synthesisTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.synthesisTotal.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(LookupHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(LookupMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.batchesTotal))
}

func TestMetrics_BreakerGauge(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.BreakerOpen("provider-call", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.breakerState.WithLabelValues("provider-call")))

	m.BreakerOpen("provider-call", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.breakerState.WithLabelValues("provider-call")))
}

func TestMetrics_NilRegisterer(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() {
		m := New(nil)
		m.ItemProcessed(OutcomeSuccess)
	})
}

func TestMetrics_DuplicateRegistrationPanics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
