package metrics

import "errors"

// MultiSink fans out events to multiple sinks.
type MultiSink struct {
	Sinks []AllocationSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...AllocationSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRound forwards the event to every sink. All sinks are called even
// when one fails; the errors are joined.
func (m *MultiSink) RecordRound(ev RoundEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRound(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RecordRun forwards the run summary to every sink.
func (m *MultiSink) RecordRun(ev RunEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		if err := s.RecordRun(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink holding resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		CloseSink(s)
	}
}

// CloseSink releases the resources of s when it has any.
func CloseSink(s AllocationSink) {
	if c, ok := s.(interface{ Close() }); ok {
		c.Close()
	}
}
