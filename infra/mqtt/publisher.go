package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/maskalloc/core/allocation"
	coremqtt "github.com/kilianp07/maskalloc/core/mqtt"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// NewPublisher returns a connected PahoClient when publishing is enabled and
// a NopPublisher otherwise.
func NewPublisher(cfg Config) (Publisher, error) {
	if !cfg.Enabled {
		return coremqtt.NopPublisher{}, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewPahoClient(cfg)
}

// MockPublisher records published allocations in memory.
type MockPublisher struct {
	Runs    map[string][]allocation.PharmacyRow
	FailIDs map[string]bool
	closed  bool
	mu      sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Runs:    make(map[string][]allocation.PharmacyRow),
		FailIDs: make(map[string]bool),
	}
}

// PublishAllocation records the rows or fails when a pharmacy is configured
// to fail.
func (m *MockPublisher) PublishAllocation(_ context.Context, runID string, rows []allocation.PharmacyRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range rows {
		if m.FailIDs[r.ID] {
			return fmt.Errorf("publish %s failed", r.ID)
		}
	}
	m.Runs[runID] = append([]allocation.PharmacyRow(nil), rows...)
	return nil
}

// Published returns the rows recorded for runID.
func (m *MockPublisher) Published(runID string) []allocation.PharmacyRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Runs[runID]
}

// Close marks the publisher closed.
func (m *MockPublisher) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// Closed reports whether Close was called.
func (m *MockPublisher) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
