package monitoring

import (
	"sync"
	"time"
)

// Config defines settings for error reporting.
type Config struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// Enabled reports whether a reporting backend is configured.
func (c Config) Enabled() bool { return c.DSN != "" }

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	// Recover reports a recovered panic value. The caller decides whether
	// to re-panic.
	Recover(r any)
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover(any)                               {}
func (NopMonitor) Flush(time.Duration)                       {}

var (
	mu      sync.RWMutex
	current Monitor = NopMonitor{}
)

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m == nil {
		return
	}
	mu.Lock()
	current = m
	mu.Unlock()
}

// Current returns the global monitor.
func Current() Monitor {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	Current().CaptureException(err, tags)
}

// Capture records err tagged with the reporting module and extra key/value
// pairs.
func Capture(module string, err error, kv ...string) {
	if err == nil {
		return
	}
	tags := map[string]string{"module": module}
	for i := 0; i+1 < len(kv); i += 2 {
		tags[kv[i]] = kv[i+1]
	}
	CaptureException(err, tags)
}

// Recover reports a recovered panic value.
func Recover(r any) {
	if r == nil {
		return
	}
	Current().Recover(r)
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	Current().Flush(d)
}
