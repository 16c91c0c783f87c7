package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the tcam configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the tcam configuration directory
const ConfigDirName = ".tcam"

// EnvFileName is the optional dotenv file read next to the config directory
const EnvFileName = ".env"

// Config holds all tcam configuration
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Charts  ChartsConfig  `yaml:"charts"`
	Output  OutputConfig  `yaml:"output"`
}

// StorageConfig selects the database the reports read from
type StorageConfig struct {
	Backend  string `yaml:"backend"`
	DSN      string `yaml:"dsn"`
	Database string `yaml:"database"`
}

// ChartsConfig selects where chart descriptors are rendered
type ChartsConfig struct {
	Sink   string   `yaml:"sink"`
	Dir    string   `yaml:"dir"`
	Width  int      `yaml:"width"`
	Height int      `yaml:"height"`
	S3     S3Config `yaml:"s3"`
}

// S3Config holds the upload target for the s3 chart sink
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
}

// OutputConfig holds configuration for report output
type OutputConfig struct {
	Format string `yaml:"format"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .tcam/config.yaml, falling back to defaults.
// It searches for the config directory starting from workDir and walking up
// the directory tree. A .env file beside the config directory (or in workDir
// when there is none) and TCAM_* environment variables override file values.
// Relative paths are resolved against the directory holding .tcam.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err == nil {
		return LoadFile(filepath.Join(configDir, ConfigFileName))
	}
	return overlay(DefaultConfig(), workDir, false)
}

// LoadFile reads the config file at path and layers the .env file and
// TCAM_* variables on top, as Load does for a discovered file. Relative
// paths resolve against ProjectRoot(path).
func LoadFile(path string) (*Config, error) {
	cfg, err := LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return overlay(cfg, ProjectRoot(path), true)
}

// ProjectRoot is the directory a config file's relative paths and .env
// belong to: the parent of .tcam when the file lives there, else the
// file's own directory.
func ProjectRoot(path string) string {
	dir := filepath.Dir(path)
	if filepath.Base(dir) == ConfigDirName {
		return filepath.Dir(dir)
	}
	return dir
}

func overlay(cfg *Config, baseDir string, resolve bool) (*Config, error) {
	if err := loadEnvFile(filepath.Join(baseDir, EnvFileName)); err != nil {
		return nil, err
	}
	ApplyEnv(cfg, os.LookupEnv)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	if resolve {
		cfg.ResolvePaths(baseDir)
	}
	return cfg, nil
}

// LoadFromPath reads config from a specific path.
// Merges loaded config with defaults and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Merge with defaults
	merged := Merge(loaded, DefaultConfig())

	// Validate the merged config
	if err := Validate(merged); err != nil {
		return nil, err
	}

	return merged, nil
}

// loadEnvFile loads a dotenv file into the process environment. Variables
// already set are not overwritten. A missing file is not an error.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("parsing env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values from TCAM_* environment variables.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set("TCAM_BACKEND", &cfg.Storage.Backend)
	set("TCAM_DSN", &cfg.Storage.DSN)
	set("TCAM_DATABASE", &cfg.Storage.Database)
	set("TCAM_CHART_SINK", &cfg.Charts.Sink)
	set("TCAM_CHART_DIR", &cfg.Charts.Dir)
	set("TCAM_S3_BUCKET", &cfg.Charts.S3.Bucket)
	set("TCAM_S3_REGION", &cfg.Charts.S3.Region)
	set("TCAM_FORMAT", &cfg.Output.Format)
}

// ResolvePaths makes file-based locations absolute against baseDir.
// PostgreSQL DSNs are left untouched.
func (c *Config) ResolvePaths(baseDir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}

	if c.Storage.Backend != "postgres" {
		c.Storage.DSN = resolve(c.Storage.DSN)
	}
	c.Charts.Dir = resolve(c.Charts.Dir)
}

// FindConfigDir locates the .tcam directory by walking up from startDir.
// Returns the path to the .tcam directory if found.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		// Move to parent directory
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root, config not found
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .tcam directory if it doesn't exist.
// Returns the path to the .tcam directory.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	return configDir, nil
}

// Validate checks that config values are valid.
// Returns an error if validation fails.
func Validate(cfg *Config) error {
	if !IsValidBackend(cfg.Storage.Backend) {
		return fmt.Errorf("%w: storage.backend must be one of %v, got %q",
			ErrInvalidConfig, ValidBackends, cfg.Storage.Backend)
	}

	if cfg.Storage.DSN == "" {
		return fmt.Errorf("%w: storage.dsn must not be empty", ErrInvalidConfig)
	}

	if !IsValidSink(cfg.Charts.Sink) {
		return fmt.Errorf("%w: charts.sink must be one of %v, got %q",
			ErrInvalidConfig, ValidSinks, cfg.Charts.Sink)
	}

	if cfg.Charts.Width <= 0 || cfg.Charts.Height <= 0 {
		return fmt.Errorf("%w: charts.width and charts.height must be positive, got %dx%d",
			ErrInvalidConfig, cfg.Charts.Width, cfg.Charts.Height)
	}

	if cfg.Charts.Sink == "s3" && cfg.Charts.S3.Bucket == "" {
		return fmt.Errorf("%w: charts.s3.bucket is required for the s3 sink", ErrInvalidConfig)
	}

	if !IsValidFormat(cfg.Output.Format) {
		return fmt.Errorf("%w: output.format must be one of %v, got %q",
			ErrInvalidConfig, ValidFormats, cfg.Output.Format)
	}

	return nil
}

// SaveDefault writes the default configuration to .tcam/config.yaml in workDir.
// Creates the .tcam directory if it doesn't exist.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# tcam configuration\n# storage.backend: sqlite | dolt | postgres\n# charts.sink: png | mermaid | s3 | none\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}

	return configPath, nil
}
