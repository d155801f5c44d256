package allocation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/maskalloc/core/logger"
	"github.com/kilianp07/maskalloc/core/model"
)

// Result is the outcome of one allocation run.
type Result struct {
	RunID       string             `json:"run_id"`
	Timestamp   time.Time          `json:"timestamp"`
	Coeff       float64            `json:"coeff"`
	Rounds      int                `json:"rounds"`
	Population  int                `json:"population"`
	TargetLoad  float64            `json:"target_load"`
	Moves       int                `json:"moves"`
	Initial     LoadStats          `json:"initial"`
	Final       LoadStats          `json:"final"`
	History     []RoundStats       `json:"history"`
	Pharmacies  []PharmacyRow      `json:"pharmacies"`
	Assignments []AssignmentRow    `json:"assignments"`
	Streets     []StreetAssignment `json:"streets"`
	Changes     []Change           `json:"changes"`
}

// InitialLoads returns the load of each pharmacy before rebalancing, in
// report order.
func (r *Result) InitialLoads() []int {
	out := make([]int, len(r.Pharmacies))
	for i, row := range r.Pharmacies {
		out[i] = row.InitialLoad
	}
	return out
}

// Engine runs the nearest assignment followed by the rebalancing.
type Engine struct {
	cfg       Config
	log       logger.Logger
	observers []RoundObserver
	now       func() time.Time
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config, log logger.Logger, observers ...RoundObserver) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop{}
	}
	return &Engine{cfg: cfg, log: log, observers: observers, now: time.Now}, nil
}

// Config returns the engine parameters.
func (e *Engine) Config() Config { return e.cfg }

// Allocate assigns streets to pharmacies and rebalances the loads under a
// fresh run ID.
func (e *Engine) Allocate(ctx context.Context, pharmacies []model.Pharmacy, streets []model.Street) (*Result, error) {
	return e.AllocateRun(ctx, uuid.NewString(), pharmacies, streets)
}

// AllocateRun is Allocate with a caller chosen run ID, so observers can
// label their events before the Result exists. The returned Result holds
// copies only; nothing produced during the run is shared with the caller
// before it completes.
func (e *Engine) AllocateRun(ctx context.Context, runID string, pharmacies []model.Pharmacy, streets []model.Street) (*Result, error) {
	start := e.now()
	p := Build(pharmacies, streets)
	if len(pharmacies) == 0 && len(streets) > 0 {
		e.log.Warnf("no pharmacy given, %d streets left unassigned", len(streets))
	}
	initial := ComputeLoadStats(p.Loads())
	e.log.Infof("nearest assignment: %d streets, %d inhabitants, %d pharmacies", p.Streets(), p.Population(), p.Len())

	history, err := NewRebalancer(e.cfg, e.log, e.observers...).Run(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("rebalance: %w", err)
	}
	if err := p.Verify(); err != nil {
		return nil, err
	}

	res := &Result{
		RunID:       runID,
		Timestamp:   start,
		Coeff:       e.cfg.Coeff,
		Rounds:      e.cfg.Rounds,
		Population:  p.Population(),
		TargetLoad:  p.TargetLoad(e.cfg.Coeff),
		Initial:     initial,
		Final:       ComputeLoadStats(p.Loads()),
		History:     history,
		Pharmacies:  p.PharmacyRows(),
		Assignments: p.AssignmentRows(),
		Streets:     p.StreetAssignments(),
		Changes:     p.Changes(),
	}
	for _, h := range history {
		res.Moves += h.Moves
	}
	for _, c := range res.Changes {
		e.log.Infof("%s %d->%d", c.Name, c.Initial, c.Final)
	}
	e.log.Infof("allocation %s done in %s: %d moves, std %.2f -> %.2f",
		res.RunID, e.now().Sub(start), res.Moves, initial.StdDev, res.Final.StdDev)
	return res, nil
}
