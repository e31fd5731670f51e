package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fenilsonani/dupsweep/internal/platform"
	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/security"
	"github.com/fenilsonani/dupsweep/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Environment variables that override file values
const (
	EnvWorkers   = "DUPSWEEP_WORKERS"
	EnvChunkSize = "DUPSWEEP_CHUNK_SIZE"
	EnvLogLevel  = "DUPSWEEP_LOG_LEVEL"
	EnvNoColor   = "DUPSWEEP_NO_COLOR"
)

// Config represents the application configuration
type Config struct {
	Scan           ScanConfig        `yaml:"scan" toml:"scan"`
	Interactive    InteractiveConfig `yaml:"interactive" toml:"interactive"`
	Output         OutputConfig      `yaml:"output" toml:"output"`
	Log            LogConfig         `yaml:"log" toml:"log"`
	ProtectedPaths []string          `yaml:"protected_paths" toml:"protected_paths"`
}

// ScanConfig controls collection and hashing
type ScanConfig struct {
	ExcludePatterns []string `yaml:"exclude_patterns" toml:"exclude_patterns"`
	MinSize         string   `yaml:"min_size" toml:"min_size"` // e.g. "1B"
	MaxSize         string   `yaml:"max_size" toml:"max_size"` // empty means unlimited
	SkipHidden      bool     `yaml:"skip_hidden" toml:"skip_hidden"`
	ChunkSize       string   `yaml:"chunk_size" toml:"chunk_size"`
	Workers         int      `yaml:"workers" toml:"workers"` // 0 picks a default from the CPU count
	Verify          bool     `yaml:"verify" toml:"verify"`
}

// InteractiveConfig controls the resolver
type InteractiveConfig struct {
	DryRun       bool   `yaml:"dry_run" toml:"dry_run"`
	ManifestPath string `yaml:"manifest_path" toml:"manifest_path"`
	TUI          bool   `yaml:"tui" toml:"tui"`
}

// OutputConfig controls reports
type OutputConfig struct {
	Format  string `yaml:"format" toml:"format"`
	NoColor bool   `yaml:"no_color" toml:"no_color"`
	Verbose bool   `yaml:"verbose" toml:"verbose"`
}

// LogConfig controls diagnostics
type LogConfig struct {
	Level string `yaml:"level" toml:"level"`
	File  string `yaml:"file" toml:"file"`
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load loads configuration from a YAML or TOML file, chosen by extension.
// A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if errors.Is(err, os.ErrNotExist) {
		return GetDefault(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if isTOML(configPath) {
		err = toml.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isTOML(configPath) {
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(config)
		data = buf.Bytes()
	} else {
		data, err = yaml.Marshal(config)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Scan.Workers < 0 || c.Scan.Workers > scanner.MaxWorkers {
		return fmt.Errorf("workers must be between 0 and %d", scanner.MaxWorkers)
	}

	sizes := map[string]string{
		"min_size":   c.Scan.MinSize,
		"max_size":   c.Scan.MaxSize,
		"chunk_size": c.Scan.ChunkSize,
	}
	for name, value := range sizes {
		if value == "" {
			continue
		}
		if _, err := utils.ParseSize(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	opts, err := c.ScannerOptions()
	if err != nil {
		return err
	}
	if opts.Filter.MaxSize > 0 && opts.Filter.MaxSize < opts.Filter.MinSize {
		return fmt.Errorf("max_size must not be smaller than min_size")
	}

	for _, pattern := range c.Scan.ExcludePatterns {
		if err := security.ValidateGlobPattern(pattern); err != nil {
			return fmt.Errorf("invalid exclude pattern '%s': %w", pattern, err)
		}
	}

	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}

	switch c.Output.Format {
	case "", "summary", "table", "json", "yaml":
	default:
		return fmt.Errorf("unsupported output format: %s", c.Output.Format)
	}

	return nil
}

// ScannerOptions converts the scan section into pipeline options
func (c *Config) ScannerOptions() (scanner.Options, error) {
	opts := scanner.Options{
		Filter: scanner.Filter{
			ExcludePatterns: c.Scan.ExcludePatterns,
			SkipHidden:      c.Scan.SkipHidden,
			MinSize:         1,
		},
		Workers: c.Scan.Workers,
		Verify:  c.Scan.Verify,
	}

	var err error
	if c.Scan.MinSize != "" {
		if opts.Filter.MinSize, err = utils.ParseSize(c.Scan.MinSize); err != nil {
			return opts, fmt.Errorf("invalid min_size: %w", err)
		}
	}
	if c.Scan.MaxSize != "" {
		if opts.Filter.MaxSize, err = utils.ParseSize(c.Scan.MaxSize); err != nil {
			return opts, fmt.Errorf("invalid max_size: %w", err)
		}
	}
	if c.Scan.ChunkSize != "" {
		chunk, err := utils.ParseSize(c.Scan.ChunkSize)
		if err != nil {
			return opts, fmt.Errorf("invalid chunk_size: %w", err)
		}
		opts.ChunkSize = int(chunk)
	}

	return opts, nil
}

// LoadDotEnv reads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides file values with DUPSWEEP_* environment variables
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvWorkers); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		c.Scan.Workers = workers
	}
	if v := os.Getenv(EnvChunkSize); v != "" {
		if _, err := utils.ParseSize(v); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvChunkSize, err)
		}
		c.Scan.ChunkSize = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvNoColor); v != "" {
		noColor, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvNoColor, err)
		}
		c.Output.NoColor = noColor
	}

	return c.Validate()
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	info, err := platform.GetInfo()
	if err != nil {
		return "", err
	}

	return filepath.Join(info.ConfigDir, "dupsweep", "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := Save(GetDefault(), configPath); err != nil {
			return "", err
		}
	}

	return configPath, nil
}
