package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/ridepool/core/metrics"
)

// PromSink exposes cycle and simulation figures as Prometheus metrics.
type PromSink struct {
	cycles     prometheus.Counter
	requests   *prometheus.CounterVec
	rejections *prometheus.CounterVec
	duration   prometheus.Histogram
	failures   *prometheus.CounterVec
	service    *prometheus.GaugeVec
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ridepool_cycles_total",
			Help: "Completed dispatch cycles",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ridepool_cycle_requests_total",
			Help: "Requests handled by completed cycles, by outcome",
		}, []string{"outcome"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ridepool_rejections_total",
			Help: "Rejected requests, by reason",
		}, []string{"reason"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ridepool_cycle_duration_seconds",
			Help:    "Wall time of completed dispatch cycles",
			Buckets: prometheus.DefBuckets,
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ridepool_cycle_failures_total",
			Help: "Aborted dispatch cycles, by phase",
		}, []string{"phase"}),
		service: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ridepool_simulation_stat",
			Help: "Aggregate figures of the last simulation run",
		}, []string{"stat"}),
	}
	var err error
	if s.cycles, err = register(reg, s.cycles); err != nil {
		return nil, err
	}
	if s.requests, err = register(reg, s.requests); err != nil {
		return nil, err
	}
	if s.rejections, err = register(reg, s.rejections); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.failures, err = register(reg, s.failures); err != nil {
		return nil, err
	}
	if s.service, err = register(reg, s.service); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the collector already registered under the same
// descriptor, if any.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordCycle counts the cycle and its outcomes.
func (s *PromSink) RecordCycle(st coremetrics.CycleStats) error {
	s.cycles.Inc()
	s.requests.WithLabelValues("served").Add(float64(st.Served))
	s.requests.WithLabelValues("rejected").Add(float64(st.Rejected))
	s.duration.Observe(st.Duration.Seconds())
	return nil
}

// RecordRejection counts a rejection under its reason.
func (s *PromSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	s.rejections.WithLabelValues(ev.Reason).Inc()
	return nil
}

// RecordCycleFailure counts an aborted cycle.
func (s *PromSink) RecordCycleFailure(ev coremetrics.CycleFailureEvent) error {
	s.failures.WithLabelValues(ev.Phase).Inc()
	return nil
}

// RecordSimulation publishes the run statistics as gauges.
func (s *PromSink) RecordSimulation(st coremetrics.SimulationStats) error {
	s.service.WithLabelValues("service_rate").Set(st.ServiceRate)
	s.service.WithLabelValues("mean_wait_seconds").Set(st.MeanWait.Seconds())
	s.service.WithLabelValues("mean_ride_seconds").Set(st.MeanRideTime.Seconds())
	s.service.WithLabelValues("mean_delay_seconds").Set(st.MeanDelay.Seconds())
	s.service.WithLabelValues("mean_occupancy").Set(st.MeanOccupancy)
	s.service.WithLabelValues("shared_rate").Set(st.SharedRate)
	return nil
}
