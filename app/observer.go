package app

import (
	"time"

	"github.com/kilianp07/maskalloc/core/allocation"
	coremetrics "github.com/kilianp07/maskalloc/core/metrics"
	"github.com/kilianp07/maskalloc/infra/logger"
)

// sinkObserver forwards round statistics to the metrics sinks.
type sinkObserver struct {
	runID string
	sink  coremetrics.AllocationSink
	log   logger.Logger
	now   func() time.Time
}

func (o *sinkObserver) ObserveRound(s allocation.RoundStats) {
	ev := coremetrics.RoundEvent{
		RunID:   o.runID,
		Round:   s.Round,
		Moves:   s.Moves,
		Changed: s.Changed,
		Min:     s.Min,
		Mean:    s.Mean,
		Max:     s.Max,
		StdDev:  s.StdDev,
		Time:    o.now(),
	}
	if err := o.sink.RecordRound(ev); err != nil {
		o.log.Warnf("record round %d: %v", s.Round, err)
	}
}
