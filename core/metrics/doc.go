// Package metrics defines the sinks recording allocation runs. Sinks like
// PromSink and InfluxSink live in infra/metrics and register themselves in
// the factory registry; several configured sinks are combined in a
// MultiSink automatically.
package metrics
