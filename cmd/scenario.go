package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/maskalloc/qa/scenarios"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario [file.yaml|dir]...",
	Short: "Run QA scenarios and report pass or fail",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenarios,
}

func init() {
	rootCmd.AddCommand(scenarioCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	var all []*scenarios.Scenario
	for _, a := range args {
		scs, err := loadScenarios(a)
		if err != nil {
			return err
		}
		all = append(all, scs...)
	}
	out := cmd.OutOrStdout()
	failed := 0
	for _, sc := range all {
		rep, err := scenarios.Run(cmd.Context(), sc)
		if err != nil {
			failed++
			fmt.Fprintf(out, "ERROR %s: %v\n", sc.Name, err)
			continue
		}
		if rep.Passed() {
			fmt.Fprintf(out, "PASS  %s (%d moves)\n", sc.Name, rep.Result.Moves)
			continue
		}
		failed++
		fmt.Fprintf(out, "FAIL  %s\n", sc.Name)
		for _, f := range rep.Failures {
			fmt.Fprintf(out, "      %s\n", f)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(all))
	}
	return nil
}

func loadScenarios(path string) ([]*scenarios.Scenario, error) {
	if isDir(path) {
		return scenarios.LoadDir(path)
	}
	sc, err := scenarios.Load(path)
	if err != nil {
		return nil, err
	}
	return []*scenarios.Scenario{sc}, nil
}
