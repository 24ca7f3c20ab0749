// Package infra holds the adapters around the dispatch core: road network
// oracles, the zerolog logger, Prometheus and InfluxDB metric sinks, the
// MQTT route publisher and the Sentry monitor. They depend only on the
// interfaces declared under core.
package infra
