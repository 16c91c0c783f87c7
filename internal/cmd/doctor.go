package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/output"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the camera database",
	Long: `Run read-only health checks on the configured database.

Checks:
  - All five tables are present (row counts are listed)
  - Cameras reference existing intersections
  - Violations reference existing cameras of their kind
  - Violation dates have the YYYY-MM-DD shape the year and month reports use

Examples:
  tcam doctor
  tcam doctor --db other.db --format json`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// doctorReport is the structured form of the doctor output.
type doctorReport struct {
	Tables []store.NamedCount `json:"tables,omitempty" yaml:"tables,omitempty"`
	Checks []store.Check      `json:"checks" yaml:"checks"`
	Issues int64              `json:"issues" yaml:"issues"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	var rep doctorReport
	rep.Checks = e.store.Doctor(cmd.Context())
	for _, c := range rep.Checks {
		rep.Issues += c.Issues
	}
	if rep.Checks[0].Passed {
		if rep.Tables, err = e.store.TableCounts(cmd.Context()); err != nil {
			return err
		}
	}

	if e.format.IsStructured() {
		f, err := output.GetFormatter(e.format)
		if err != nil {
			return err
		}
		return f.FormatToWriter(cmd.OutOrStdout(), rep)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "# tcam doctor")
	for _, t := range rep.Tables {
		fmt.Fprintf(w, "#   %-16s %d rows\n", t.Name, t.Count)
	}
	for _, c := range rep.Checks {
		if c.Passed {
			fmt.Fprintf(w, "#   ✓ %s\n", c.Name)
			continue
		}
		fmt.Fprintf(w, "#   ✗ %s (%d)\n", c.Name, c.Issues)
		for _, detail := range c.Details {
			fmt.Fprintf(w, "#     - %s\n", detail)
		}
	}

	fmt.Fprintln(w, "#")
	if rep.Issues == 0 {
		fmt.Fprintln(w, "# Summary: All checks passed ✓")
	} else {
		fmt.Fprintf(w, "# Summary: %d issue(s) found\n", rep.Issues)
	}
	return nil
}
