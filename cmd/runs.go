package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/maskalloc/core/runlog"
)

var runsFlags struct {
	facility string
	since    string
	until    string
}

var runsCmd = &cobra.Command{
	Use:   "runs [id]",
	Short: "List recorded allocation runs or show one of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRuns,
}

func init() {
	f := runsCmd.Flags()
	f.StringVar(&runsFlags.facility, "facility", "", "only runs involving this pharmacy ID")
	f.StringVar(&runsFlags.since, "since", "", "only runs after this RFC3339 time")
	f.StringVar(&runsFlags.until, "until", "", "only runs before this RFC3339 time")
	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		rec, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "run %s at %s\n", rec.ID, rec.Timestamp.Format(time.RFC3339))
		fmt.Fprintf(out, "coeff %.2f, %d rounds, %d moves, std %.2f -> %.2f\n",
			rec.Coeff, rec.Rounds, rec.Moves, rec.Initial.StdDev, rec.Final.StdDev)
		for _, l := range rec.Loads {
			fmt.Fprintf(out, "  %-12s %-30s %d\n", l.ID, l.Name, l.Load)
		}
		return nil
	}

	q := runlog.Query{PharmacyID: runsFlags.facility}
	if q.Start, err = parseTimeFlag("since", runsFlags.since); err != nil {
		return err
	}
	if q.End, err = parseTimeFlag("until", runsFlags.until); err != nil {
		return err
	}
	records, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tPHARMACIES\tSTREETS\tMOVES\tSTD BEFORE\tSTD AFTER")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.2f\t%.2f\n",
			r.ID, r.Timestamp.Format(time.RFC3339), r.Pharmacies, r.Streets, r.Moves, r.Initial.StdDev, r.Final.StdDev)
	}
	return tw.Flush()
}

func parseTimeFlag(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}
