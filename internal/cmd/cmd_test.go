package cmd

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/config"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/report"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/store"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/store/storetest"
)

// resetFlags restores every package-level flag variable; cobra keeps parsed
// values between Execute calls.
func resetFlags() {
	verbose = false
	configPath = ""
	forAgents = false
	outputFormat = ""
	dbPath = ""
	backendName = ""
	chartSink = ""
	chartDir = ""

	serveMCP = false
	serveTools = ""
	serveTimeout = "30m"
	serveStatus = false
	serveStop = false
	serveListTools = false
}

// isolate runs the test from an empty directory with no TCAM_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	for _, k := range []string{
		"TCAM_BACKEND", "TCAM_DSN", "TCAM_DATABASE", "TCAM_CHART_SINK",
		"TCAM_CHART_DIR", "TCAM_S3_BUCKET", "TCAM_S3_REGION", "TCAM_FORMAT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// trackStores records every store setup opens for the rest of the test.
func trackStores(t *testing.T) *[]*store.Store {
	t.Helper()
	var opened []*store.Store
	orig := openStore
	openStore = func(ctx context.Context, opts store.Options) (*store.Store, error) {
		st, err := orig(ctx, opts)
		if err == nil {
			opened = append(opened, st)
		}
		return st, err
	}
	t.Cleanup(func() { openStore = orig })
	return &opened
}

func assertReleased(t *testing.T, opened []*store.Store) {
	t.Helper()
	if len(opened) != 1 {
		t.Fatalf("expected one store to be opened, got %d", len(opened))
	}
	if err := opened[0].DB().Ping(); err == nil {
		t.Error("store connection still open after the command returned")
	}
}

// partialDB writes a database holding only the Intersections table, so
// every camera and violation query fails.
func partialDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "partial.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Exec("CREATE TABLE Intersections (Intersection_ID INTEGER PRIMARY KEY, Intersection TEXT)"); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStoreReleasedOnEveryExit(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		partial bool
		wantErr bool
	}{
		{name: "menu exit", stdin: "x\n"},
		{name: "menu invalid option", stdin: "zz\n"},
		{name: "menu report", stdin: "3\n2023-07-04\n"},
		{name: "menu input closed", stdin: "", wantErr: true},
		{name: "menu query error", stdin: "x\n", partial: true, wantErr: true},
		{name: "run report", args: []string{"run", "3", "2023-07-04"}},
		{name: "run query error", args: []string{"run", "3", "2023-07-04"}, partial: true, wantErr: true},
		{name: "doctor", args: []string{"doctor"}},
		{name: "doctor missing tables", args: []string{"doctor"}, partial: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			opened := trackStores(t)

			db := storetest.New(t)
			if tt.partial {
				db = partialDB(t)
			}
			args := append(tt.args, "--db", db, "--charts", "none")

			_, _, err := executeCommand(t, tt.stdin, args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			assertReleased(t, *opened)
		})
	}
}

// cancelWriter cancels when a write contains marker.
type cancelWriter struct {
	bytes.Buffer
	marker string
	cancel context.CancelFunc
}

func (w *cancelWriter) Write(p []byte) (int, error) {
	if strings.Contains(string(p), w.marker) {
		w.cancel()
	}
	return w.Buffer.Write(p)
}

func TestMenuInterruptedAtPrompt(t *testing.T) {
	isolate(t)
	opened := trackStores(t)
	db := storetest.New(t)

	resetFlags()
	t.Cleanup(resetFlags)
	t.Cleanup(func() { rootCmd.SetContext(context.Background()) })

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out := &cancelWriter{marker: "Enter your option: ", cancel: cancel}

	rootCmd.SetIn(pr)
	rootCmd.SetOut(out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"--db", db, "--charts", "none"})

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("interrupted menu should exit cleanly, got %v", err)
	}
	if !strings.HasSuffix(out.String(), "Enter your option: \n") {
		t.Errorf("unexpected ending:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Exiting program.") {
		t.Error("interrupted menu printed the normal exit line")
	}
	assertReleased(t, *opened)
}

func TestMenuExit(t *testing.T) {
	isolate(t)
	db := storetest.New(t)

	out, _, err := executeCommand(t, "x\n", "--db", db, "--charts", "none")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}

	for _, want := range []string{
		"Chicago Traffic Camera Analysis\n",
		"General Statistics:\n  Number of Red Light Cameras: 4\n",
		"Select a menu option: \n",
		"  9. Find cameras located on a street\n",
		"Enter your option: Exiting program.\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMenuRunsReport(t *testing.T) {
	isolate(t)
	db := storetest.New(t)

	out, _, err := executeCommand(t, "3\n2023-07-04\n", "--db", db, "--charts", "none")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}
	if !strings.Contains(out, "Enter the date that you would like to look at (format should be YYYY-MM-DD): ") {
		t.Errorf("date prompt missing:\n%s", out)
	}
	if !strings.Contains(out, "Number of Red Light Violations: 1 (33.333%)\n") {
		t.Errorf("report 3 output missing:\n%s", out)
	}
	if !strings.HasSuffix(out, "Exiting program.\n") {
		t.Errorf("output should end with the exit line:\n%s", out)
	}
}

func TestMenuStructuredKeepsStdoutClean(t *testing.T) {
	isolate(t)
	db := storetest.New(t)

	out, errOut, err := executeCommand(t, "8\n2022\n", "--db", db, "--charts", "none", "--format", "json")
	if err != nil {
		t.Fatalf("menu: %v", err)
	}

	if !strings.Contains(errOut, "Select a menu option: ") {
		t.Errorf("menu should go to stderr, got:\n%s", errOut)
	}
	if strings.Contains(out, "Select a menu option") || strings.Contains(out, "Exiting program.") {
		t.Errorf("stdout should only carry documents:\n%s", out)
	}

	dec := json.NewDecoder(strings.NewReader(out))
	var stats struct {
		RedCameras int64 `json:"red_cameras"`
	}
	if err := dec.Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v\n%s", err, out)
	}
	var cmp struct {
		Year  string `json:"year"`
		Red   int64  `json:"red"`
		Speed int64  `json:"speed"`
	}
	if err := dec.Decode(&cmp); err != nil {
		t.Fatalf("decode comparison: %v\n%s", err, out)
	}
	if stats.RedCameras != 4 || cmp.Year != "2022" || cmp.Red != 4 || cmp.Speed != 4 {
		t.Errorf("unexpected documents: %+v %+v", stats, cmp)
	}
}

func TestMenuOpenFailure(t *testing.T) {
	dir := isolate(t)

	_, _, err := executeCommand(t, "x\n", "--db", filepath.Join(dir, "missing.db"))
	if err == nil || !strings.Contains(err.Error(), "open store") {
		t.Errorf("expected open store error, got %v", err)
	}
}

func TestRunReport(t *testing.T) {
	isolate(t)
	db := storetest.New(t)

	out, _, err := executeCommand(t, "", "run", "3", "2023-07-04", "--db", db, "--charts", "none")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := "\nNumber of Red Light Violations: 1 (33.333%)\n" +
		"Number of Speed Violations: 2 (66.667%)\n" +
		"Total Number of Violations: 3\n\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestRunStats(t *testing.T) {
	isolate(t)
	db := storetest.New(t)

	out, _, err := executeCommand(t, "", "run", "stats", "--db", db, "--charts", "none", "--format", "yaml")
	if err != nil {
		t.Fatalf("run stats: %v", err)
	}
	if !strings.Contains(out, "red_cameras: 4") {
		t.Errorf("unexpected stats output:\n%s", out)
	}
}

func TestRunArgumentErrors(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand(t, "", "run", "7", "101")
	if !errors.Is(err, report.ErrMissingParam) {
		t.Errorf("expected ErrMissingParam, got %v", err)
	}

	_, _, err = executeCommand(t, "", "run", "12")
	if !errors.Is(err, report.ErrUnknownReport) {
		t.Errorf("expected ErrUnknownReport, got %v", err)
	}
}

func TestRunWritesPNGChart(t *testing.T) {
	dir := isolate(t)
	db := storetest.New(t)
	charts := filepath.Join(dir, "charts")

	if _, _, err := executeCommand(t, "", "run", "8", "2022", "--db", db, "--chart-dir", charts); err != nil {
		t.Fatalf("run: %v", err)
	}

	files, _ := filepath.Glob(filepath.Join(charts, "*.png"))
	if len(files) != 1 {
		t.Errorf("expected one png chart, got %v", files)
	}
}

func TestRunWritesMermaidChart(t *testing.T) {
	dir := isolate(t)
	db := storetest.New(t)
	charts := filepath.Join(dir, "charts")

	if _, _, err := executeCommand(t, "", "run", "7", "101", "2022", "--db", db, "--charts", "mermaid", "--chart-dir", charts); err != nil {
		t.Fatalf("run: %v", err)
	}

	files, _ := filepath.Glob(filepath.Join(charts, "*.mmd"))
	if len(files) != 1 {
		t.Fatalf("expected one mermaid chart, got %v", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "xychart-beta") {
		t.Errorf("unexpected chart:\n%s", data)
	}
}

func TestRunWithConfigFile(t *testing.T) {
	dir := isolate(t)

	project := filepath.Join(dir, "project")
	if err := os.MkdirAll(filepath.Join(project, config.ConfigDirName), 0755); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(storetest.New(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, "cams.db"), data, 0644); err != nil {
		t.Fatal(err)
	}
	cfgFile := filepath.Join(project, config.ConfigDirName, config.ConfigFileName)
	if err := os.WriteFile(cfgFile, []byte("storage:\n  dsn: cams.db\ncharts:\n  sink: none\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := executeCommand(t, "", "run", "9", "State", "--config", cfgFile)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, " 208 : 300 N State St\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRunWithConfigFileReadsEnvFile(t *testing.T) {
	dir := isolate(t)

	project := filepath.Join(dir, "project")
	if err := os.MkdirAll(filepath.Join(project, config.ConfigDirName), 0755); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(storetest.New(t))
	if err != nil {
		t.Fatal(err)
	}
	// Only the database named in .env exists.
	if err := os.WriteFile(filepath.Join(project, "env.db"), data, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(project, config.EnvFileName), []byte("TCAM_DSN=env.db\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfgFile := filepath.Join(project, config.ConfigDirName, config.ConfigFileName)
	if err := os.WriteFile(cfgFile, []byte("storage:\n  dsn: cams.db\ncharts:\n  sink: none\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := executeCommand(t, "", "run", "3", "2023-07-04", "--config", cfgFile)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Total Number of Violations: 3\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRunTrimsArguments(t *testing.T) {
	isolate(t)
	db := storetest.New(t)

	out, _, err := executeCommand(t, "", "run", "3", " 2023-07-04 ", "--db", db, "--charts", "none")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Total Number of Violations: 3\n") {
		t.Errorf("padded date should match like it does at the prompt:\n%s", out)
	}
}

func TestReportsList(t *testing.T) {
	isolate(t)

	out, _, err := executeCommand(t, "", "reports")
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	for _, want := range []string{
		"1. Find an intersection by name\n   tcam run 1 <pattern>\n",
		"4. Number of cameras at each intersection\n   tcam run 4\n",
		"   tcam run 7 <camera> <year>\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, _, err = executeCommand(t, "", "reports", "--format", "yaml")
	if err != nil {
		t.Fatalf("reports yaml: %v", err)
	}
	if !strings.Contains(out, "tool: tcam_report_9") {
		t.Errorf("yaml listing missing tool name:\n%s", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := isolate(t)

	out, _, err := executeCommand(t, "", "config", "init")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.HasPrefix(out, "Created ") {
		t.Errorf("unexpected init output %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, config.ConfigDirName, config.ConfigFileName)); err != nil {
		t.Errorf("config file not written: %v", err)
	}

	if _, _, err := executeCommand(t, "", "config", "init"); err == nil {
		t.Error("second init should refuse to overwrite")
	}

	out, _, err = executeCommand(t, "", "config", "show", "--charts", "mermaid")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{
		"backend: sqlite",
		"sink: mermaid",
		filepath.Join(dir, config.DefaultDSN),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigRejectsBadFlag(t *testing.T) {
	isolate(t)

	_, _, err := executeCommand(t, "", "config", "show", "--backend", "oracle")
	if !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestDoctor(t *testing.T) {
	isolate(t)
	db := storetest.New(t)

	out, _, err := executeCommand(t, "", "doctor", "--db", db)
	if err != nil {
		t.Fatalf("doctor: %v", err)
	}
	if !strings.Contains(out, "RedViolations") || !strings.Contains(out, "# Summary: All checks passed ✓") {
		t.Errorf("unexpected doctor output:\n%s", out)
	}
}

func TestParseTools(t *testing.T) {
	got := parseTools("stats, 3,report_8,tcam_report_9,,")
	want := []string{"tcam_stats", "tcam_report_3", "tcam_report_8", "tcam_report_9"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("parseTools = %v, want %v", got, want)
	}
	if parseTools("") != nil {
		t.Error("empty list should expose all tools")
	}
}

func TestServeListTools(t *testing.T) {
	isolate(t)

	out, _, err := executeCommand(t, "", "serve", "--list-tools")
	if err != nil {
		t.Fatalf("serve --list-tools: %v", err)
	}
	if !strings.Contains(out, "tcam_stats") || !strings.Contains(out, "tcam_report_9") {
		t.Errorf("tool list incomplete:\n%s", out)
	}
	if !strings.Contains(out, "inputs: camera, year\n") {
		t.Errorf("report 7 inputs missing:\n%s", out)
	}
}

func TestServeListToolsSubset(t *testing.T) {
	isolate(t)

	out, _, err := executeCommand(t, "", "serve", "--list-tools", "--tools", "3,stats")
	if err != nil {
		t.Fatalf("serve --list-tools: %v", err)
	}
	if !strings.Contains(out, "tcam_report_3") || !strings.Contains(out, "tcam_stats") {
		t.Errorf("selected tools missing:\n%s", out)
	}
	if strings.Contains(out, "tcam_report_9") {
		t.Errorf("unselected tool listed:\n%s", out)
	}

	if _, _, err := executeCommand(t, "", "serve", "--list-tools", "--tools", "report_42"); err == nil {
		t.Error("expected error for an unknown tool")
	}
}

func TestServeStatusWithoutConfigDir(t *testing.T) {
	isolate(t)

	out, _, err := executeCommand(t, "", "serve", "--status")
	if err != nil {
		t.Fatalf("serve --status: %v", err)
	}
	if out != "Status: not running (no .tcam directory)\n" {
		t.Errorf("unexpected status %q", out)
	}
}

func TestServeRequiresMCPFlag(t *testing.T) {
	isolate(t)

	if _, _, err := executeCommand(t, "", "serve"); err == nil {
		t.Error("expected error without --mcp")
	}
}

func TestServeAnswersOverStdio(t *testing.T) {
	isolate(t)
	db := storetest.New(t)

	in := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}` + "\n"
	out, _, err := executeCommand(t, in, "serve", "--mcp", "--timeout", "0", "--db", db, "--charts", "none")
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if !strings.Contains(out, `"id":1`) || !strings.Contains(out, `"name":"tcam"`) {
		t.Errorf("unexpected initialize response:\n%s", out)
	}
}

func TestForAgents(t *testing.T) {
	isolate(t)

	out, _, err := executeCommand(t, "", "--for-agents")
	if err != nil {
		t.Fatalf("--for-agents: %v", err)
	}

	var doc struct {
		Version  string        `json:"version"`
		Commands []CommandInfo `json:"commands"`
		Reports  []ReportInfo  `json:"reports"`
	}
	if err := json.NewDecoder(strings.NewReader(out)).Decode(&doc); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if doc.Version != Version || len(doc.Reports) != 9 {
		t.Errorf("unexpected discovery document: version %q, %d reports", doc.Version, len(doc.Reports))
	}

	names := make(map[string]bool)
	for _, c := range doc.Commands {
		names[c.Name] = true
	}
	for _, want := range []string{"run", "reports", "serve", "config", "doctor"} {
		if !names[want] {
			t.Errorf("discovery missing command %q", want)
		}
	}
}

func TestRootHelpNamesChartingReports(t *testing.T) {
	if strings.Contains(rootCmd.Long, "Reports 4") {
		t.Error("help claims report 4 produces a chart")
	}
	if !strings.Contains(rootCmd.Long, "general statistics and reports 7 and 8 also produce charts") {
		t.Errorf("help does not name the charting reports:\n%s", rootCmd.Long)
	}
}
