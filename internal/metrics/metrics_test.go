package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMetrics_Lifecycle verifies the counters track a submission
// lifecycle.
func TestMetrics_Lifecycle(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Submitted()
	m.Submitted()
	m.Confirmed(21000)
	m.Failed(true)
	m.ReadCall()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.submitted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.confirmed))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failed))
	assert.Equal(t, float64(21000), testutil.ToFloat64(m.gasUsed))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.readCalls))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.inFlight))
}

// TestMetrics_FailedBeforeDispatch verifies the in-flight gauge only
// decrements for failures after dispatch.
func TestMetrics_FailedBeforeDispatch(t *testing.T) {
	t.Parallel()
	m := New(prometheus.NewRegistry())

	m.Submitted()
	m.Failed(false) // a different, never-dispatched submission
	assert.Equal(t, float64(1), testutil.ToFloat64(m.inFlight))
}

// TestMetrics_NilSafe verifies that a nil receiver records nothing and
// does not panic.
func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()
	var m *Metrics
	require.NotPanics(t, func() {
		m.Submitted()
		m.Confirmed(1)
		m.Failed(true)
		m.ReadCall()
	})
}
