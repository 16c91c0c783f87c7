package config

// Default values for tcam configuration
const (
	DefaultBackend     = "sqlite"
	DefaultDSN         = "chicago-traffic-cameras.db"
	DefaultDatabase    = "traffic"
	DefaultChartSink   = "png"
	DefaultChartDir    = "charts"
	DefaultChartWidth  = 1000
	DefaultChartHeight = 600
	DefaultFormat      = "text"
)

// ValidBackends lists the accepted storage.backend values
var ValidBackends = []string{"sqlite", "dolt", "postgres"}

// ValidSinks lists the accepted charts.sink values
var ValidSinks = []string{"png", "mermaid", "s3", "none"}

// ValidFormats lists the accepted output.format values
var ValidFormats = []string{"text", "yaml", "json"}

// DefaultConfig returns a Config with sensible defaults.
// The defaults read the distributed SQLite file from the working directory
// and write PNG charts under ./charts.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:  DefaultBackend,
			DSN:      DefaultDSN,
			Database: DefaultDatabase,
		},
		Charts: ChartsConfig{
			Sink:   DefaultChartSink,
			Dir:    DefaultChartDir,
			Width:  DefaultChartWidth,
			Height: DefaultChartHeight,
		},
		Output: OutputConfig{
			Format: DefaultFormat,
		},
	}
}

// Merge combines a loaded config with defaults.
// Values from loaded take precedence; missing values use defaults.
func Merge(loaded, defaults *Config) *Config {
	if loaded == nil {
		return defaults
	}
	if defaults == nil {
		return loaded
	}

	return &Config{
		Storage: mergeStorageConfig(loaded.Storage, defaults.Storage),
		Charts:  mergeChartsConfig(loaded.Charts, defaults.Charts),
		Output:  mergeOutputConfig(loaded.Output, defaults.Output),
	}
}

func mergeStorageConfig(loaded, defaults StorageConfig) StorageConfig {
	result := defaults

	if loaded.Backend != "" {
		result.Backend = loaded.Backend
	}
	if loaded.DSN != "" {
		result.DSN = loaded.DSN
	}
	if loaded.Database != "" {
		result.Database = loaded.Database
	}

	return result
}

func mergeChartsConfig(loaded, defaults ChartsConfig) ChartsConfig {
	result := defaults

	if loaded.Sink != "" {
		result.Sink = loaded.Sink
	}
	if loaded.Dir != "" {
		result.Dir = loaded.Dir
	}
	if loaded.Width != 0 {
		result.Width = loaded.Width
	}
	if loaded.Height != 0 {
		result.Height = loaded.Height
	}
	// The S3 target has no defaults; take it whole.
	result.S3 = loaded.S3

	return result
}

func mergeOutputConfig(loaded, defaults OutputConfig) OutputConfig {
	result := defaults

	if loaded.Format != "" {
		result.Format = loaded.Format
	}

	return result
}

// IsValidBackend checks if a backend name is valid
func IsValidBackend(backend string) bool {
	return isOneOf(backend, ValidBackends)
}

// IsValidSink checks if a chart sink name is valid
func IsValidSink(sink string) bool {
	return isOneOf(sink, ValidSinks)
}

// IsValidFormat checks if an output format is valid
func IsValidFormat(format string) bool {
	return isOneOf(format, ValidFormats)
}

func isOneOf(v string, valid []string) bool {
	for _, s := range valid {
		if v == s {
			return true
		}
	}
	return false
}
