package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/config"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server over stdio.

Every menu report is exposed as a tool taking the same inputs the menu
prompts for, plus an optional format (json by default, yaml or text).
Charts are emitted to the configured sink as in the menu.

Available Tools:
  tcam_stats        General statistics
  tcam_report_1..9  The menu reports (see 'tcam reports')

Examples:
  tcam serve --mcp                       # Start with all tools
  tcam serve --mcp --tools stats,3,8     # Start with specific tools only
  tcam serve --mcp --timeout 30m         # Auto-stop after 30 minutes idle
  tcam serve --status                    # Check if server is running
  tcam serve --stop                      # Stop running server
  tcam serve --list-tools                # Show available tools`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveMCP       bool
	serveTools     string
	serveTimeout   string
	serveStatus    bool
	serveStop      bool
	serveListTools bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Start MCP server (stdio transport)")
	serveCmd.Flags().StringVar(&serveTools, "tools", "", "Comma-separated list of tools to expose (default: all)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "30m", "Inactivity timeout (0 for no timeout)")
	serveCmd.Flags().BoolVar(&serveStatus, "status", false, "Check if server is running")
	serveCmd.Flags().BoolVar(&serveStop, "stop", false, "Stop running server")
	serveCmd.Flags().BoolVar(&serveListTools, "list-tools", false, "List available tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if serveListTools {
		return listTools(cmd)
	}

	if serveStatus {
		return checkServerStatus(cmd)
	}

	if serveStop {
		return stopServer(cmd)
	}

	if !serveMCP {
		return fmt.Errorf("use --mcp to start the MCP server, or --help for usage")
	}

	timeout, err := parseDuration(serveTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	e, err := setup(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	server, err := mcp.New(e.store, mcp.Config{
		Tools:   parseTools(serveTools),
		Timeout: timeout,
		Charts:  e.charts,
		Log:     e.log,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if err := writePIDFile(); err != nil {
		e.log.WithError(err).Warn("could not write PID file")
	}
	defer removePIDFile()

	// stdout is the MCP protocol stream; startup info goes to stderr.
	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "tcam serve: starting MCP server\n")
	fmt.Fprintf(errOut, "tcam serve: tools: %v\n", server.ListTools())
	if timeout > 0 {
		fmt.Fprintf(errOut, "tcam serve: timeout: %v\n", timeout)
	}

	err = server.ServeStdio(cmd.Context(), cmd.InOrStdin(), out)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintf(errOut, "tcam serve: shutting down\n")
		return nil
	}
	return err
}

// listTools prints the tools a server started with the same --tools flag
// would expose, with their required inputs. No database is opened.
func listTools(cmd *cobra.Command) error {
	server, err := mcp.New(nil, mcp.Config{Tools: parseTools(serveTools)})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Available MCP tools:")
	fmt.Fprintln(out)
	for _, schema := range server.GetToolSchemas() {
		fmt.Fprintf(out, "  %-16s %s\n", schema.Name, schema.Description)
		var required []string
		for _, p := range schema.Parameters {
			if p.Required {
				required = append(required, p.Name)
			}
		}
		if len(required) > 0 {
			fmt.Fprintf(out, "  %-16s inputs: %s\n", "", strings.Join(required, ", "))
		}
	}
	return nil
}

// parseTools expands the --tools list. Bare menu numbers and names without
// the tcam_ prefix are accepted (3 -> tcam_report_3, stats -> tcam_stats).
func parseTools(list string) []string {
	var tools []string
	for _, t := range strings.Split(list, ",") {
		t = strings.TrimSpace(t)
		switch {
		case t == "":
			continue
		case strings.HasPrefix(t, "tcam_"):
		case isDigits(t):
			t = mcp.ToolName(t)
		default:
			t = "tcam_" + t
		}
		tools = append(tools, t)
	}
	return tools
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

func getPIDFilePath() (string, error) {
	dir, err := config.FindConfigDir(".")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "serve.pid"), nil
}

func writePIDFile() error {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return err
	}
	return os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func removePIDFile() {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return
	}
	os.Remove(pidPath)
}

// readPID returns the recorded server PID, or 0 when there is none.
func readPID() (int, error) {
	pidPath, err := getPIDFilePath()
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(pidPath)
	if err != nil {
		return 0, nil
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		removePIDFile()
		return 0, fmt.Errorf("invalid PID file")
	}
	return pid, nil
}

func checkServerStatus(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	pid, err := readPID()
	switch {
	case errors.Is(err, config.ErrConfigNotFound):
		fmt.Fprintln(out, "Status: not running (no .tcam directory)")
		return nil
	case err != nil:
		fmt.Fprintf(out, "Status: not running (%v)\n", err)
		return nil
	case pid == 0:
		fmt.Fprintln(out, "Status: not running")
		return nil
	}

	// On Unix, FindProcess always succeeds, so send signal 0 to check
	process, err := os.FindProcess(pid)
	if err == nil {
		err = process.Signal(syscall.Signal(0))
	}
	if err != nil {
		fmt.Fprintln(out, "Status: not running (stale PID file)")
		removePIDFile()
		return nil
	}

	fmt.Fprintf(out, "Status: running (PID %d)\n", pid)
	return nil
}

func stopServer(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	pid, err := readPID()
	if errors.Is(err, config.ErrConfigNotFound) {
		return fmt.Errorf("no .tcam directory: run 'tcam config init' first")
	}
	if err != nil {
		return err
	}
	if pid == 0 {
		fmt.Fprintln(out, "No server running")
		return nil
	}

	process, err := os.FindProcess(pid)
	if err == nil {
		err = process.Signal(syscall.SIGTERM)
	}
	if err != nil {
		removePIDFile()
		fmt.Fprintln(out, "Server already stopped")
		return nil
	}

	fmt.Fprintf(out, "Stopped server (PID %d)\n", pid)
	return nil
}
