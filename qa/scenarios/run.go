package scenarios

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/maskalloc/app"
	"github.com/kilianp07/maskalloc/config"
	"github.com/kilianp07/maskalloc/core/allocation"
	"github.com/kilianp07/maskalloc/core/runlog"
	"github.com/kilianp07/maskalloc/infra/logger"
	"github.com/kilianp07/maskalloc/infra/metrics"
	"github.com/kilianp07/maskalloc/infra/mqtt"
)

// Report is the outcome of one scenario.
type Report struct {
	Name     string
	Failures []string
	Result   *allocation.Result
	// Rounds is the number of rounds seen by the metrics sink.
	Rounds int
}

// Passed reports whether every expectation held.
func (r Report) Passed() bool { return len(r.Failures) == 0 }

func (r *Report) failf(format string, args ...any) {
	r.Failures = append(r.Failures, fmt.Sprintf(format, args...))
}

// Run allocates the scenario through the application service, with a
// private Prometheus registry and an in-memory publisher, and checks the
// expectations.
func Run(ctx context.Context, sc *Scenario) (Report, error) {
	rep := Report{Name: sc.Name}
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		return rep, fmt.Errorf("prom sink: %w", err)
	}
	pub := mqtt.NewMockPublisher()

	cfg := config.Default()
	cfg.Allocation = allocation.Config{Coeff: sc.Coeff, Rounds: sc.Rounds}
	cfg.RunLog = runlog.Config{Backend: "none"}
	svc, err := app.New(&cfg,
		app.WithSink(sink),
		app.WithPublisher(pub),
		app.WithLogger(logger.NopLogger{}),
		app.WithObserver(allocation.ObserverFunc(func(allocation.RoundStats) { rep.Rounds++ })),
	)
	if err != nil {
		return rep, err
	}
	defer func() { _ = svc.Close() }()

	res, err := svc.Allocate(ctx, app.Input{Pharmacies: sc.Pharmacies, Streets: sc.Streets})
	if err != nil {
		return rep, err
	}
	rep.Result = res
	check(&rep, sc.Expected, res)

	if rep.Rounds != sc.Rounds && len(res.Pharmacies) > 0 && len(res.Streets) > 0 {
		rep.failf("observed %d rounds, want %d", rep.Rounds, sc.Rounds)
	}
	if got := len(pub.Published(res.RunID)); got != len(res.Pharmacies) {
		rep.failf("published %d pharmacies, want %d", got, len(res.Pharmacies))
	}
	return rep, nil
}

func check(rep *Report, exp Expected, res *allocation.Result) {
	original := make(map[string]string, len(res.Streets))
	for _, s := range res.Streets {
		original[s.Key] = s.OriginalID
	}
	for key, want := range exp.InitialOwner {
		if got, ok := original[key]; !ok {
			rep.failf("street %s not assigned", key)
		} else if got != want {
			rep.failf("street %s nearest pharmacy %s, want %s", key, got, want)
		}
	}

	initial := res.InitialLoads()
	byID := make(map[string]int, len(res.Pharmacies))
	initialByID := make(map[string]int, len(res.Pharmacies))
	for i, p := range res.Pharmacies {
		byID[p.ID] = p.Load
		initialByID[p.ID] = initial[i]
	}
	compareLoads(rep, "initial", exp.InitialLoads, initialByID)
	compareLoads(rep, "final", exp.FinalLoads, byID)

	if exp.Moves != nil && *exp.Moves != res.Moves {
		rep.failf("%d moves, want %d", res.Moves, *exp.Moves)
	}
	if exp.MaxStdDev != nil && res.Final.StdDev > *exp.MaxStdDev+1e-9 {
		rep.failf("final stddev %.3f above %.3f", res.Final.StdDev, *exp.MaxStdDev)
	}
}

func compareLoads(rep *Report, phase string, want, got map[string]int) {
	for id, w := range want {
		g, ok := got[id]
		if !ok {
			rep.failf("unknown pharmacy %s", id)
			continue
		}
		if g != w {
			rep.failf("%s load of %s is %d, want %d", phase, id, g, w)
		}
	}
}
