package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/kilianp07/maskalloc/app"
	"github.com/kilianp07/maskalloc/core/allocation"
	"github.com/kilianp07/maskalloc/infra/logger"
	"github.com/kilianp07/maskalloc/infra/metrics"
)

var allocateFlags struct {
	coeff      float64
	rounds     int
	out        string
	pharmacies string
	streets    string
	progress   bool
}

var allocateCmd = &cobra.Command{
	Use:   "allocate",
	Short: "Assign streets to their nearest pharmacy and rebalance the loads",
	RunE:  runAllocate,
}

func init() {
	f := allocateCmd.Flags()
	f.Float64Var(&allocateFlags.coeff, "coeff", allocation.DefaultCoeff, "eligibility coefficient applied to the target load")
	f.IntVar(&allocateFlags.rounds, "rounds", allocation.DefaultRounds, "number of rebalancing rounds")
	f.StringVarP(&allocateFlags.out, "out", "o", "", "report directory (overrides output.dir)")
	f.StringVar(&allocateFlags.pharmacies, "pharmacies", "", "pharmacies file (overrides input.pharmacies)")
	f.StringVar(&allocateFlags.streets, "streets", "", "streets file (overrides input.streets)")
	f.BoolVar(&allocateFlags.progress, "progress", false, "show a progress bar over the rounds")
	rootCmd.AddCommand(allocateCmd)
}

func runAllocate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext()
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("coeff") {
		cfg.Allocation.Coeff = allocateFlags.coeff
	}
	if flags.Changed("rounds") {
		cfg.Allocation.Rounds = allocateFlags.rounds
	}
	if allocateFlags.out != "" {
		cfg.Output.Dir = allocateFlags.out
	}
	if allocateFlags.pharmacies != "" {
		cfg.Input.Pharmacies = allocateFlags.pharmacies
	}
	if allocateFlags.streets != "" {
		cfg.Input.Streets = allocateFlags.streets
	}
	if err := cfg.Allocation.Validate(); err != nil {
		return err
	}

	log := logger.New("allocate")
	var opts []app.Option
	var bar *pb.ProgressBar
	if allocateFlags.progress && cfg.Allocation.Rounds > 0 {
		bar = pb.New(cfg.Allocation.Rounds)
		bar.Output = cmd.ErrOrStderr()
		bar.Prefix("rounds ")
		opts = append(opts, app.WithObserver(allocation.ObserverFunc(func(allocation.RoundStats) {
			bar.Increment()
		})))
	}
	svc, err := app.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()
	if cfg.Metrics.PrometheusAddr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, cfg.Metrics.PrometheusAddr); err != nil {
				log.Errorf("prom server: %v", err)
			}
		}()
	}

	in, err := svc.LoadInput()
	if err != nil {
		return err
	}
	if bar != nil {
		bar.Start()
	}
	res, err := svc.Allocate(ctx, in)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}
	files, err := writeReports(cfg.Output, res)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d streets, %d inhabitants, %d pharmacies\n",
		res.RunID, len(res.Streets), res.Population, len(res.Pharmacies))
	fmt.Fprintf(out, "target load %.1f, %d moves, std %.2f -> %.2f\n",
		res.TargetLoad, res.Moves, res.Initial.StdDev, res.Final.StdDev)
	for _, c := range res.Changes {
		fmt.Fprintf(out, "  %s %d->%d\n", c.Name, c.Initial, c.Final)
	}
	for _, f := range files {
		fmt.Fprintf(out, "wrote %s\n", f)
	}
	return nil
}
