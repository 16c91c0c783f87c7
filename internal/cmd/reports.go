package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/mcp"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/output"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/report"
)

// reportsCmd represents the reports command
var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "List the menu reports and their inputs",
	Long: `List every menu option with its title, the inputs it asks for and the
MCP tool that exposes it. Does not open the database.`,
	Example: `  tcam reports
  tcam reports --format yaml`,
	Args: cobra.NoArgs,
	RunE: runReports,
}

func init() {
	rootCmd.AddCommand(reportsCmd)
}

// ReportInfo describes one menu report for listings and agent discovery.
type ReportInfo struct {
	Option string      `json:"option" yaml:"option"`
	Title  string      `json:"title" yaml:"title"`
	Tool   string      `json:"tool" yaml:"tool"`
	Params []ParamInfo `json:"params,omitempty" yaml:"params,omitempty"`
}

// ParamInfo describes one report input.
type ParamInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

func reportInfos() []ReportInfo {
	var infos []ReportInfo
	for _, r := range report.All() {
		info := ReportInfo{Option: r.Option, Title: r.Title, Tool: mcp.ToolName(r.Option)}
		for _, p := range r.Params {
			info.Params = append(info.Params, ParamInfo{Name: p.Name, Description: p.Description})
		}
		infos = append(infos, info)
	}
	return infos
}

func runReports(cmd *cobra.Command, args []string) error {
	format := output.DefaultFormat
	if outputFormat != "" {
		var err error
		if format, err = output.ParseFormat(outputFormat); err != nil {
			return err
		}
	}

	infos := reportInfos()
	if format.IsStructured() {
		f, err := output.GetFormatter(format)
		if err != nil {
			return err
		}
		return f.FormatToWriter(cmd.OutOrStdout(), infos)
	}

	w := cmd.OutOrStdout()
	for _, info := range infos {
		names := make([]string, len(info.Params))
		for i, p := range info.Params {
			names[i] = "<" + p.Name + ">"
		}
		fmt.Fprintf(w, "%s. %s\n", info.Option, info.Title)
		fmt.Fprintf(w, "   tcam run %s", info.Option)
		if len(names) > 0 {
			fmt.Fprintf(w, " %s", strings.Join(names, " "))
		}
		fmt.Fprintln(w)
	}
	return nil
}
