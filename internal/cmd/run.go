package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/report"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <option> [params...]",
	Short: "Run one report without the interactive menu",
	Long: `Run a single menu report with its inputs given as arguments.

The option is a menu number (1-9) or "stats" for the general statistics
printed before the menu. Inputs are cleaned up the way the menu prompts
clean them; quote values containing spaces. Output follows --format and charts follow --charts.

See 'tcam reports' for each option's inputs.`,
	Example: `  tcam run stats
  tcam run 1 "Main%"
  tcam run 3 2023-07-04
  tcam run 7 101 2022 --format json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	option := strings.ToLower(strings.TrimSpace(args[0]))

	var rep report.Report
	if option != "stats" {
		var err error
		if rep, err = report.Lookup(option); err != nil {
			return err
		}
		if err := rep.CheckArgs(len(args) - 1); err != nil {
			return err
		}
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	var res report.Result
	if option == "stats" {
		res, err = report.Stats(cmd.Context(), e.store)
	} else {
		res, err = rep.Run(cmd.Context(), e.store, args[1:]...)
	}
	if err != nil {
		return err
	}
	return e.runner(cmd.OutOrStdout()).Emit(cmd.Context(), res)
}
