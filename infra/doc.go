// Package infra holds the adapters behind the core interfaces: input
// loaders, the MQTT publisher, metrics sinks and the Sentry monitor.
// Nothing in core imports these packages.
package infra
