package metrics

import "github.com/kilianp07/maskalloc/core/factory"

var sinkRegistry = factory.NewRegistry[AllocationSink]()

// RegisterSink adds a sink factory identified by name.
func RegisterSink(name string, f factory.Factory[AllocationSink]) error {
	return sinkRegistry.Register(name, f)
}

// NewSink creates an AllocationSink from the provided configuration.
func NewSink(cfgs []factory.ModuleConfig) (AllocationSink, error) {
	if len(cfgs) == 0 {
		return NopSink{}, nil
	}
	if len(cfgs) == 1 {
		return sinkRegistry.Create(cfgs[0])
	}
	sinks := make([]AllocationSink, len(cfgs))
	for i, c := range cfgs {
		s, err := sinkRegistry.Create(c)
		if err != nil {
			return nil, err
		}
		sinks[i] = s
	}
	return NewMultiSink(sinks...), nil
}
