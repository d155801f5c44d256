package metrics

import "github.com/kilianp07/maskalloc/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr is the listen address of the /metrics endpoint used by
	// the allocate command. The serve command exposes /metrics on the API
	// server instead.
	PrometheusAddr string `json:"prometheus_addr"`
}
