// Package metrics exposes Prometheus collectors for the transaction
// coordinator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the coordinator's Prometheus collectors. A nil
// *Metrics is valid and records nothing, so library users who do not
// scrape can pass nothing.
type Metrics struct {
	submitted prometheus.Counter
	confirmed prometheus.Counter
	failed    prometheus.Counter
	readCalls prometheus.Counter
	gasUsed   prometheus.Counter
	inFlight  prometheus.Gauge
}

// New creates the collectors and registers them with reg. Pass
// prometheus.DefaultRegisterer for the usual global registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paygate",
			Subsystem: "txmgr",
			Name:      "transactions_submitted_total",
			Help:      "State-changing transactions dispatched to the node.",
		}),
		confirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paygate",
			Subsystem: "txmgr",
			Name:      "transactions_confirmed_total",
			Help:      "Transactions mined successfully.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paygate",
			Subsystem: "txmgr",
			Name:      "transactions_failed_total",
			Help:      "Transactions that errored or reverted.",
		}),
		readCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paygate",
			Subsystem: "txmgr",
			Name:      "read_calls_total",
			Help:      "Read-only contract calls dispatched directly.",
		}),
		gasUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "paygate",
			Subsystem: "txmgr",
			Name:      "gas_used_total",
			Help:      "Cumulative gas consumed by confirmed transactions.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "paygate",
			Subsystem: "txmgr",
			Name:      "transactions_in_flight",
			Help:      "Submitted transactions not yet confirmed or failed.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.submitted, m.confirmed, m.failed, m.readCalls, m.gasUsed, m.inFlight)
	}
	return m
}

// Submitted records one dispatched transaction.
func (m *Metrics) Submitted() {
	if m == nil {
		return
	}
	m.submitted.Inc()
	m.inFlight.Inc()
}

// Confirmed records one mined transaction and its gas.
func (m *Metrics) Confirmed(gasUsed uint64) {
	if m == nil {
		return
	}
	m.confirmed.Inc()
	m.gasUsed.Add(float64(gasUsed))
	m.inFlight.Dec()
}

// Failed records one failed transaction. wasInFlight distinguishes
// failures after dispatch from failures before it.
func (m *Metrics) Failed(wasInFlight bool) {
	if m == nil {
		return
	}
	m.failed.Inc()
	if wasInFlight {
		m.inFlight.Dec()
	}
}

// ReadCall records one read-only dispatch.
func (m *Metrics) ReadCall() {
	if m == nil {
		return
	}
	m.readCalls.Inc()
}
