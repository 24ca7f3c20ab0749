// Package metrics defines the recorders used to observe dispatch cycles and
// simulation runs. Sinks like PromSink and InfluxSink live in infra/metrics
// and register themselves by name; NewMetricsSink returns a MultiSink when
// several sinks are configured.
package metrics
