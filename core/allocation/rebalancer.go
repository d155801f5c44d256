package allocation

import (
	"context"

	"github.com/kilianp07/maskalloc/core/logger"
)

// RoundObserver is notified at the end of every rebalancing round.
type RoundObserver interface {
	ObserveRound(RoundStats)
}

// ObserverFunc adapts a function to RoundObserver.
type ObserverFunc func(RoundStats)

// ObserveRound calls f.
func (f ObserverFunc) ObserveRound(s RoundStats) { f(s) }

// Rebalancer moves streets towards under-loaded pharmacies.
type Rebalancer struct {
	cfg       Config
	log       logger.Logger
	observers []RoundObserver
}

// NewRebalancer returns a Rebalancer for the given parameters. A nil logger
// disables logging.
func NewRebalancer(cfg Config, log logger.Logger, observers ...RoundObserver) *Rebalancer {
	if log == nil {
		log = logger.Nop{}
	}
	return &Rebalancer{cfg: cfg, log: log, observers: observers}
}

// Run executes the configured number of rounds on p and returns the
// statistics of each round. The context is only checked between rounds; a
// cancelled run leaves p in the state of the last completed round.
func (r *Rebalancer) Run(ctx context.Context, p *Partition) ([]RoundStats, error) {
	if p.Len() == 0 || p.Streets() == 0 {
		r.log.Debugf("nothing to rebalance: %d pharmacies, %d streets", p.Len(), p.Streets())
		return nil, nil
	}
	target := p.TargetLoad(r.cfg.Coeff)
	r.log.Debugw("rebalancing", map[string]any{
		"rounds":      r.cfg.Rounds,
		"coeff":       r.cfg.Coeff,
		"target_load": target,
		"population":  p.Population(),
	})

	history := make([]RoundStats, 0, min(r.cfg.Rounds, 1024))
	for round := 1; round <= r.cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			return history, err
		}
		moves := r.round(p, target)
		rs := RoundStats{Round: round, Moves: moves, Changed: changed(p), LoadStats: ComputeLoadStats(p.Loads())}
		r.log.Infof("round %d/%d: min=%d mean=%.1f max=%d std=%.2f moves=%d",
			round, r.cfg.Rounds, rs.Min, rs.Mean, rs.Max, rs.StdDev, rs.Moves)
		for _, o := range r.observers {
			o.ObserveRound(rs)
		}
		history = append(history, rs)
	}
	return history, nil
}

// round performs one pass of at most one move per pharmacy and returns the
// number of moves.
func (r *Rebalancer) round(p *Partition, target float64) int {
	for i := range p.facilities {
		p.facilities[i].processed = false
	}
	moves := 0
	for attempt := 0; attempt < len(p.facilities); attempt++ {
		t, ok := p.selectTarget(target)
		if !ok {
			break
		}
		p.facilities[t].processed = true
		j, ok := p.selectStreet(t)
		if !ok {
			r.log.Debugf("no street can be moved to %s", p.facilities[t].pharmacy.Name)
			continue
		}
		from := p.points[j].current
		p.move(j, t)
		moves++
		r.log.Debugf("moved %s from %s to %s", p.points[j].street.Key(),
			p.facilities[from].pharmacy.Name, p.facilities[t].pharmacy.Name)
	}
	return moves
}

// selectTarget returns the unprocessed pharmacy with the lowest load among
// those at or below target.
func (p *Partition) selectTarget(target float64) (int, bool) {
	best := -1
	for i := range p.facilities {
		f := &p.facilities[i]
		if f.processed || float64(f.load) > target {
			continue
		}
		if best < 0 || f.load < p.facilities[best].load {
			best = i
		}
	}
	return best, best >= 0
}

// selectStreet returns the street closest to pharmacy t among those served
// by a pharmacy at least as loaded as t.
func (p *Partition) selectStreet(t int) (int, bool) {
	ph := p.facilities[t].pharmacy
	load := p.facilities[t].load
	best := -1
	var bestD float64
	for j := range p.points {
		pt := &p.points[j]
		if pt.current == t || p.facilities[pt.current].load < load {
			continue
		}
		d := ph.DistanceSquared(pt.street.X, pt.street.Y)
		if best < 0 || d < bestD {
			best, bestD = j, d
		}
	}
	return best, best >= 0
}

func changed(p *Partition) int {
	n := 0
	for i := range p.facilities {
		if p.facilities[i].load != p.facilities[i].initialLoad {
			n++
		}
	}
	return n
}
