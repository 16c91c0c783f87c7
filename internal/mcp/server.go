// Package mcp provides an MCP (Model Context Protocol) server for tcam.
// Each report of the menu is exposed as a tool, so agents can query the
// camera database without driving the interactive prompt.
package mcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/chart"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/output"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/report"
)

// StatsTool is the name of the general statistics tool.
const StatsTool = "tcam_stats"

// ToolName returns the tool name for a menu option.
func ToolName(option string) string {
	return "tcam_report_" + option
}

// Server wraps the MCP server with the report catalog.
type Server struct {
	mcpServer    *server.MCPServer
	catalog      report.Catalog
	charts       chart.Sink
	log          logrus.FieldLogger
	tools        map[string]bool
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Tools   []string      // Which tools to expose (empty = all)
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
	Charts  chart.Sink    // Where report charts go (nil = discarded)
	Log     logrus.FieldLogger
}

// AllTools lists all available tools
var AllTools = allTools()

func allTools() []string {
	names := []string{StatsTool}
	for _, r := range report.All() {
		names = append(names, ToolName(r.Option))
	}
	return names
}

// New creates an MCP server over cat. The caller keeps ownership of the
// catalog's connection.
func New(cat report.Catalog, cfg Config) (*Server, error) {
	mcpServer := server.NewMCPServer(
		"tcam",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	log := cfg.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	charts := cfg.Charts
	if charts == nil {
		charts = chart.None{}
	}

	s := &Server{
		mcpServer:    mcpServer,
		catalog:      cat,
		charts:       charts,
		log:          log,
		tools:        make(map[string]bool),
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	toolsToRegister := cfg.Tools
	if len(toolsToRegister) == 0 {
		toolsToRegister = AllTools
	}

	for _, toolName := range toolsToRegister {
		if err := s.registerTool(toolName); err != nil {
			return nil, fmt.Errorf("failed to register tool %s: %w", toolName, err)
		}
		s.tools[toolName] = true
	}

	return s, nil
}

// registerTool registers a single tool with the MCP server
func (s *Server) registerTool(name string) error {
	schema, ok := toolSchemaRegistry[name]
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}

	opts := []mcp.ToolOption{mcp.WithDescription(schema.Description)}
	for _, p := range schema.Parameters {
		popts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			popts = append(popts, mcp.Required())
		}
		if p.Name == "format" {
			popts = append(popts, mcp.Enum("json", "yaml", "text"))
		}
		opts = append(opts, mcp.WithString(p.Name, popts...))
	}

	s.mcpServer.AddTool(mcp.NewTool(name, opts...), s.handler(name))
	return nil
}

// ServeStdio serves MCP over in/out until ctx is done, in reaches EOF or
// the inactivity timeout passes. Tool calls run one at a time since every
// report shares the single store connection.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.timeout > 0 {
		go s.timeoutChecker(ctx, cancel)
	}

	stdio := server.NewStdioServer(s.mcpServer)
	server.WithWorkerPoolSize(1)(stdio)
	return stdio.Listen(ctx, in, out)
}

// timeoutChecker cancels the serving context once the server has been idle
// for longer than the timeout.
func (s *Server) timeoutChecker(ctx context.Context, cancel context.CancelFunc) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			s.log.WithField("timeout", s.timeout).Info("stopping after inactivity")
			cancel()
			return
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// ListTools returns the registered tools in sorted order.
func (s *Server) ListTools() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tools := make([]string, 0, len(s.tools))
	for t := range s.tools {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}

// ToolSchema describes a tool's name, description, and parameters.
type ToolSchema struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Parameters  []ParameterSchema `json:"parameters" yaml:"parameters"`
}

// ParameterSchema describes a single tool parameter.
type ParameterSchema struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
}

var formatParam = ParameterSchema{
	Name:        "format",
	Type:        "string",
	Description: "Result format: json (default), yaml, or text (the menu's layout)",
}

// toolSchemaRegistry holds the schema definitions for all tools, derived
// from the report dispatch table.
var toolSchemaRegistry = buildSchemaRegistry()

func buildSchemaRegistry() map[string]ToolSchema {
	registry := map[string]ToolSchema{
		StatsTool: {
			Name:        StatsTool,
			Description: "General statistics: total red light cameras and red light cameras per intersection.",
			Parameters:  []ParameterSchema{formatParam},
		},
	}

	for _, r := range report.All() {
		name := ToolName(r.Option)
		schema := ToolSchema{Name: name, Description: r.Title + "."}
		for _, p := range r.Params {
			schema.Parameters = append(schema.Parameters, ParameterSchema{
				Name:        p.Name,
				Type:        "string",
				Description: p.Description,
				Required:    true,
			})
		}
		schema.Parameters = append(schema.Parameters, formatParam)
		registry[name] = schema
	}
	return registry
}

// GetToolSchemas returns schemas for all registered tools.
func (s *Server) GetToolSchemas() []ToolSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schemas := make([]ToolSchema, 0, len(s.tools))
	for name := range s.tools {
		if schema, ok := toolSchemaRegistry[name]; ok {
			schemas = append(schemas, schema)
		}
	}
	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.updateActivity()

		result, err := s.CallTool(ctx, name, req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		return mcp.NewToolResultText(result), nil
	}
}

// CallTool runs a tool by name with the given arguments and returns the
// rendered result.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	s.mu.RLock()
	registered := s.tools[name]
	s.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	format := output.FormatJSON
	if f, ok := args["format"].(string); ok && f != "" {
		parsed, err := output.ParseFormat(f)
		if err != nil {
			return "", err
		}
		format = parsed
	}

	var res report.Result
	if name == StatsTool {
		stats, err := report.Stats(ctx, s.catalog)
		if err != nil {
			return "", err
		}
		res = stats
	} else {
		rep, err := s.reportFor(name)
		if err != nil {
			return "", err
		}
		values := make([]string, len(rep.Params))
		for i, p := range rep.Params {
			v, ok := stringArg(args, p.Name)
			if !ok {
				return "", fmt.Errorf("%s parameter is required", p.Name)
			}
			values[i] = v
		}
		if res, err = rep.Run(ctx, s.catalog, values...); err != nil {
			return "", err
		}
	}

	var buf bytes.Buffer
	runner := &report.Runner{Out: &buf, Charts: s.charts, Format: format, Log: s.log}
	if err := runner.Emit(ctx, res); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) reportFor(tool string) (report.Report, error) {
	for _, r := range report.All() {
		if ToolName(r.Option) == tool {
			return r, nil
		}
	}
	return report.Report{}, fmt.Errorf("%w: tool %s", report.ErrUnknownReport, tool)
}

// stringArg reads a parameter as text. Agents often send ids and years as
// JSON numbers, so those are accepted too.
func stringArg(args map[string]interface{}, name string) (string, bool) {
	switch v := args[name].(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	default:
		return "", false
	}
}
