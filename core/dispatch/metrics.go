package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	phaseDuration *prometheus.HistogramVec
	requestsTotal *prometheus.CounterVec
	graphSize     *prometheus.GaugeVec
	solverNodes   prometheus.Histogram
	cycleFailures *prometheus.CounterVec
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.HistogramVec, *prometheus.CounterVec, *prometheus.GaugeVec, prometheus.Histogram, *prometheus.CounterVec) {
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dispatch_cycle_phase_seconds",
			Help:    "Wall time spent in each phase of a dispatch cycle",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"phase"},
	)
	reqs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_requests_total",
			Help: "Requests considered by dispatch cycles, by outcome",
		},
		[]string{"outcome"},
	)
	size := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dispatch_graph_size",
			Help: "Size of the last cycle's graphs",
		},
		[]string{"kind"},
	)
	nodes := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_solver_nodes",
			Help:    "LP relaxations solved per cycle",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		},
	)
	fail := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_cycle_failures_total",
			Help: "Aborted dispatch cycles, by phase",
		},
		[]string{"phase"},
	)
	return dur, reqs, size, nodes, fail
}

func init() {
	phaseDuration, requestsTotal, graphSize, solverNodes, cycleFailures = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(phaseDuration, requestsTotal, graphSize, solverNodes, cycleFailures)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	phaseDuration, requestsTotal, graphSize, solverNodes, cycleFailures = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
