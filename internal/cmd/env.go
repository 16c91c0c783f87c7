package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/chart"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/config"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/output"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/report"
	"github.com/opohotz/Chicago-Traffic-Camera-Analysis/internal/store"
)

// openStore opens the data source for setup. Tests wrap it to watch the
// connection being released.
var openStore = store.Open

// env is what every data command needs: the resolved configuration, one
// open store and the chart sink.
type env struct {
	cfg    *config.Config
	log    *logrus.Logger
	store  *store.Store
	charts chart.Sink
	format output.Format
}

// Close releases the store connection.
func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.WithError(err).Warn("close store")
	}
}

func (e *env) runner(out io.Writer) *report.Runner {
	return &report.Runner{Out: out, Charts: e.charts, Format: e.format, Log: e.log}
}

// setup loads configuration, applies flag overrides and opens the store.
func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := newLogger(cmd.ErrOrStderr())

	format, err := output.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	backend, err := store.ParseBackend(cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}

	st, err := openStore(cmd.Context(), store.Options{
		Backend:  backend,
		DSN:      cfg.Storage.DSN,
		Database: cfg.Storage.Database,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	charts, err := chart.New(cmd.Context(), cfg.Charts, log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("chart sink: %w", err)
	}

	log.WithFields(logrus.Fields{
		"backend": backend,
		"dsn":     st.Path(),
		"charts":  cfg.Charts.Sink,
	}).Debug("store open")

	return &env{cfg: cfg, log: log, store: st, charts: charts, format: format}, nil
}

// loadConfig reads the config file (from --config or by searching up from
// the working directory) and applies the global flags on top of it.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		if cfg, err = config.Load(cwd); err != nil {
			return nil, err
		}
	}

	if dbPath != "" {
		cfg.Storage.DSN = dbPath
	}
	if backendName != "" {
		cfg.Storage.Backend = backendName
	}
	if chartSink != "" {
		cfg.Charts.Sink = chartSink
	}
	if chartDir != "" {
		cfg.Charts.Dir = chartDir
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger logs to w at warn level, or debug with --verbose.
func newLogger(w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
