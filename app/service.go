package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/maskalloc/config"
	"github.com/kilianp07/maskalloc/core/allocation"
	coremetrics "github.com/kilianp07/maskalloc/core/metrics"
	"github.com/kilianp07/maskalloc/core/model"
	coremon "github.com/kilianp07/maskalloc/core/monitoring"
	coremqtt "github.com/kilianp07/maskalloc/core/mqtt"
	"github.com/kilianp07/maskalloc/core/runlog"
	"github.com/kilianp07/maskalloc/infra/ingest"
	"github.com/kilianp07/maskalloc/infra/logger"
	_ "github.com/kilianp07/maskalloc/infra/metrics"
	"github.com/kilianp07/maskalloc/infra/monitoring"
	"github.com/kilianp07/maskalloc/infra/mqtt"
)

// Input is one allocation request. Nil Coeff or Rounds use the configured
// values.
type Input struct {
	Pharmacies []model.Pharmacy `json:"pharmacies"`
	Streets    []model.Street   `json:"streets"`
	Coeff      *float64         `json:"coeff,omitempty"`
	Rounds     *int             `json:"rounds,omitempty"`
}

// Service runs allocations and fans their outcome out to the run log, the
// metrics sinks and the MQTT publisher.
type Service struct {
	cfg       config.Config
	sink      coremetrics.AllocationSink
	store     runlog.Store
	publisher coremqtt.Publisher
	observers []allocation.RoundObserver
	log       logger.Logger
	now       func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithSink replaces the sinks built from the metrics configuration.
func WithSink(s coremetrics.AllocationSink) Option { return func(svc *Service) { svc.sink = s } }

// WithStore replaces the run log opened from the configuration.
func WithStore(s runlog.Store) Option { return func(svc *Service) { svc.store = s } }

// WithPublisher replaces the MQTT publisher.
func WithPublisher(p coremqtt.Publisher) Option { return func(svc *Service) { svc.publisher = p } }

// WithObserver adds a round observer to every allocation.
func WithObserver(o allocation.RoundObserver) Option {
	return func(svc *Service) { svc.observers = append(svc.observers, o) }
}

// WithLogger replaces the service logger.
func WithLogger(l logger.Logger) Option { return func(svc *Service) { svc.log = l } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	svc := &Service{cfg: *cfg, log: logger.New("service"), now: time.Now}
	for _, o := range opts {
		o(svc)
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	if svc.sink == nil {
		if svc.sink, err = coremetrics.NewSink(cfg.Metrics.Sinks); err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
	}
	if svc.store == nil {
		if svc.store, err = runlog.Open(cfg.RunLog); err != nil {
			coremetrics.CloseSink(svc.sink)
			return nil, fmt.Errorf("run log: %w", err)
		}
	}
	if svc.publisher == nil {
		if svc.publisher, err = mqtt.NewPublisher(cfg.MQTT); err != nil {
			coremetrics.CloseSink(svc.sink)
			_ = svc.store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
	}
	return svc, nil
}

// Config returns the service configuration.
func (s *Service) Config() config.Config { return s.cfg }

// LoadInput reads the input files named in the configuration.
func (s *Service) LoadInput() (Input, error) {
	in, err := ingest.NewLoader(s.cfg.Input, logger.New("ingest")).Load()
	if err != nil {
		return Input{}, err
	}
	return Input{Pharmacies: in.Pharmacies, Streets: in.Streets}, nil
}

// Allocate validates the input, runs the engine and records the run.
// Metrics and publication failures are reported but do not fail the call;
// a run that cannot be logged does.
func (s *Service) Allocate(ctx context.Context, in Input) (*allocation.Result, error) {
	if err := ingest.Validate(in.Pharmacies, in.Streets); err != nil {
		return nil, err
	}
	acfg := s.cfg.Allocation
	if in.Coeff != nil {
		acfg.Coeff = *in.Coeff
	}
	if in.Rounds != nil {
		acfg.Rounds = *in.Rounds
	}

	runID := uuid.NewString()
	observers := append([]allocation.RoundObserver{&sinkObserver{
		runID: runID,
		sink:  s.sink,
		log:   s.log,
		now:   s.now,
	}}, s.observers...)
	eng, err := allocation.NewEngine(acfg, logger.New("allocation"), observers...)
	if err != nil {
		return nil, err
	}

	start := s.now()
	res, err := eng.AllocateRun(ctx, runID, in.Pharmacies, in.Streets)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			coremon.Capture("allocation", err, "run_id", runID)
		}
		return nil, err
	}
	elapsed := s.now().Sub(start)

	if err := s.store.Append(ctx, runlog.FromResult(res)); err != nil {
		coremon.Capture("runlog", err, "run_id", res.RunID)
		return nil, fmt.Errorf("append run log: %w", err)
	}
	if err := s.sink.RecordRun(runEvent(res, elapsed, s.now())); err != nil {
		s.log.Errorf("record run: %v", err)
		coremon.Capture("metrics", err, "run_id", res.RunID)
	}
	if err := s.publisher.PublishAllocation(ctx, res.RunID, res.Pharmacies); err != nil {
		s.log.Errorf("publish allocation %s: %v", res.RunID, err)
	}
	return res, nil
}

// Runs returns the logged runs matching q.
func (s *Service) Runs(ctx context.Context, q runlog.Query) ([]runlog.RunRecord, error) {
	return s.store.Query(ctx, q)
}

// Run returns one logged run.
func (s *Service) Run(ctx context.Context, id string) (runlog.RunRecord, error) {
	return s.store.Get(ctx, id)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.publisher.Close()
	coremetrics.CloseSink(s.sink)
	coremon.Flush(2 * time.Second)
	return s.store.Close()
}

func runEvent(res *allocation.Result, elapsed time.Duration, now time.Time) coremetrics.RunEvent {
	initial := res.InitialLoads()
	loads := make([]coremetrics.PharmacyLoad, len(res.Pharmacies))
	for i, p := range res.Pharmacies {
		loads[i] = coremetrics.PharmacyLoad{PharmacyID: p.ID, Name: p.Name, Initial: initial[i], Final: p.Load}
	}
	return coremetrics.RunEvent{
		RunID:         res.RunID,
		Pharmacies:    len(res.Pharmacies),
		Streets:       len(res.Streets),
		Population:    res.Population,
		TargetLoad:    res.TargetLoad,
		Rounds:        len(res.History),
		Moves:         res.Moves,
		InitialStdDev: res.Initial.StdDev,
		FinalStdDev:   res.Final.StdDev,
		Loads:         loads,
		Duration:      elapsed,
		Time:          now,
	}
}
