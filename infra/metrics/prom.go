package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/maskalloc/core/metrics"
)

// PromSink exposes allocation runs as Prometheus metrics.
type PromSink struct {
	runs      prometheus.Counter
	moves     prometheus.Counter
	roundLoad *prometheus.GaugeVec
	pharmacy  *prometheus.GaugeVec
	duration  prometheus.Histogram
}

// NewPromSink registers allocation metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maskalloc_runs_total",
			Help: "Total number of completed allocation runs",
		}),
		moves: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "maskalloc_moves_total",
			Help: "Total number of streets moved by rebalancing",
		}),
		roundLoad: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "maskalloc_round_load",
			Help: "Pharmacy load statistics at the end of the last rebalancing round",
		}, []string{"stat"}),
		pharmacy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "maskalloc_pharmacy_load",
			Help: "Inhabitants served by a pharmacy after the last run",
		}, []string{"pharmacy_id", "phase"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "maskalloc_run_duration_seconds",
			Help:    "Duration of allocation runs",
			Buckets: prometheus.DefBuckets,
		}),
	}
	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.moves, err = register(reg, s.moves); err != nil {
		return nil, err
	}
	if s.roundLoad, err = register(reg, s.roundLoad); err != nil {
		return nil, err
	}
	if s.pharmacy, err = register(reg, s.pharmacy); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the already registered collector when c was registered
// by a previous sink.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRound sets the load gauges to the statistics of the round.
func (s *PromSink) RecordRound(ev coremetrics.RoundEvent) error {
	s.roundLoad.WithLabelValues("min").Set(float64(ev.Min))
	s.roundLoad.WithLabelValues("mean").Set(ev.Mean)
	s.roundLoad.WithLabelValues("max").Set(float64(ev.Max))
	s.roundLoad.WithLabelValues("stddev").Set(ev.StdDev)
	return nil
}

// RecordRun updates counters and the per pharmacy loads.
func (s *PromSink) RecordRun(ev coremetrics.RunEvent) error {
	s.runs.Inc()
	s.moves.Add(float64(ev.Moves))
	s.duration.Observe(ev.Duration.Seconds())
	for _, l := range ev.Loads {
		s.pharmacy.WithLabelValues(l.PharmacyID, "initial").Set(float64(l.Initial))
		s.pharmacy.WithLabelValues(l.PharmacyID, "final").Set(float64(l.Final))
	}
	return nil
}
