// Package cmd contains all CLI commands for tcam.
package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/report"
)

var (
	// Version is the current version of tcam
	Version = "0.1.0"

	// Global flags
	verbose      bool
	configPath   string
	forAgents    bool
	outputFormat string
	dbPath       string
	backendName  string
	chartSink    string
	chartDir     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tcam",
	Short: "Chicago traffic camera analysis",
	Long: `tcam answers questions about the Chicago red light and speed camera database.

Run without a subcommand, it prints general statistics and a numbered menu,
asks for one option and its inputs, prints that report and exits.

Menu:
  1  Find an intersection by name
  2  Find all cameras at an intersection
  3  Percentage of violations for a specific date
  4  Number of cameras at each intersection
  5  Number of violations at each intersection, given a year
  6  Number of violations by year, given a camera ID
  7  Number of violations by month, given a camera ID and year
  8  Compare the number of red light and speed violations, given a year
  9  Find cameras located on a street

The general statistics and reports 7 and 8 also produce charts (PNG files
by default).

Global Flags:
  --db        Database to read (default: chicago-traffic-cameras.db)
  --format    Result format: text (default) | yaml | json
  --charts    Chart sink: png (default) | mermaid | s3 | none

Examples:
  tcam                               # Interactive menu
  tcam run 3 2023-07-04              # One report without prompts
  tcam run 7 101 2022 --charts none  # Monthly table only
  tcam --format json                 # Menu with JSON results on stdout
  tcam serve --mcp                   # Expose the reports as MCP tools

See 'tcam <command> --help' for command-specific options.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	RunE:          runMenu,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log queries and chart output to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .tcam/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "", "Result format (text|yaml|json)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file, Dolt directory or PostgreSQL DSN")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "Database backend (sqlite|dolt|postgres)")
	rootCmd.PersistentFlags().StringVar(&chartSink, "charts", "", "Chart sink (png|mermaid|s3|none)")
	rootCmd.PersistentFlags().StringVar(&chartDir, "chart-dir", "", "Directory for png and mermaid charts")
	rootCmd.Flags().BoolVar(&forAgents, "for-agents", false, "Output machine-readable capability discovery JSON")

	// Set custom help function to intercept --for-agents flag
	originalHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if forAgents {
			outputAgentHelp(cmd)
			return
		}
		originalHelp(cmd, args)
	})
}

// runMenu runs one interactive session. With a structured format the
// menu and prompts go to stderr so stdout carries only the documents.
// SIGINT or SIGTERM at a prompt ends the session; the store is still closed.
func runMenu(cmd *cobra.Command, args []string) error {
	if forAgents {
		outputAgentHelp(cmd)
		return nil
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	ui := cmd.OutOrStdout()
	if e.format.IsStructured() {
		ui = cmd.ErrOrStderr()
	}

	session := &report.Session{
		Catalog: e.store,
		In:      bufio.NewReader(cmd.InOrStdin()),
		UI:      ui,
		Runner:  e.runner(cmd.OutOrStdout()),
	}
	err = session.Run(cmd.Context())
	if errors.Is(err, context.Canceled) {
		// Interrupted at a prompt: end the prompt line and leave quietly.
		fmt.Fprintln(ui)
		return nil
	}
	return err
}

// CommandInfo represents a command for agent discovery
type CommandInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Usage       string        `json:"usage"`
	Flags       []FlagInfo    `json:"flags,omitempty"`
	Subcommands []CommandInfo `json:"subcommands,omitempty"`
	Examples    []string      `json:"examples,omitempty"`
}

// FlagInfo represents a command flag for agent discovery
type FlagInfo struct {
	Name        string `json:"name"`
	Shorthand   string `json:"shorthand,omitempty"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Default     string `json:"default,omitempty"`
}

// outputAgentHelp outputs machine-readable JSON describing all commands
func outputAgentHelp(cmd *cobra.Command) {
	root := buildCommandInfo(cmd.Root())

	output := map[string]interface{}{
		"version":      Version,
		"commands":     root.Subcommands,
		"global_flags": root.Flags,
		"reports":      reportInfos(),
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

// buildCommandInfo recursively builds command information for agent discovery
func buildCommandInfo(cmd *cobra.Command) CommandInfo {
	info := CommandInfo{
		Name:        cmd.Name(),
		Description: cmd.Short,
		Usage:       cmd.UseLine(),
	}

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		info.Flags = append(info.Flags, FlagInfo{
			Name:        f.Name,
			Shorthand:   f.Shorthand,
			Description: f.Usage,
			Type:        f.Value.Type(),
			Default:     f.DefValue,
		})
	})

	for _, sub := range cmd.Commands() {
		if !sub.Hidden {
			info.Subcommands = append(info.Subcommands, buildCommandInfo(sub))
		}
	}

	if cmd.Example != "" {
		for _, line := range strings.Split(cmd.Example, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				info.Examples = append(info.Examples, trimmed)
			}
		}
	}

	return info
}
