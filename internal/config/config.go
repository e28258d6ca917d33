// Package config loads application configuration. Precedence, lowest to
// highest: built-in defaults, an optional YAML file, TSE_* environment
// variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	HTTP    HTTPConfig    `yaml:"http" envconfig:"HTTP"`
	Paths   PathsConfig   `yaml:"paths" envconfig:"PATHS"`
	Export  ExportConfig  `yaml:"export" envconfig:"EXPORT"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// HTTPConfig controls the TSETMC fetch client: request timeout, retry
// policy and request pacing.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
	MaxAttempts   int           `yaml:"max_attempts" envconfig:"MAX_ATTEMPTS" validate:"gte=1"`
	BackoffFactor float64       `yaml:"backoff_factor" envconfig:"BACKOFF_FACTOR" validate:"gt=0"`
	RateLimitRPS  float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS" validate:"gt=0"`
	RateBurst     int           `yaml:"rate_burst" envconfig:"RATE_BURST" validate:"gte=1"`
}

// PathsConfig contains output locations.
type PathsConfig struct {
	OutputDir    string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	CombinedCSV  string `yaml:"combined_csv" envconfig:"COMBINED_CSV" validate:"required"`
	CombinedXLSX string `yaml:"combined_xlsx" envconfig:"COMBINED_XLSX"`
}

// ExportConfig toggles output encodings.
type ExportConfig struct {
	// BOM prefixes CSV files with a UTF-8 byte-order mark so Excel opens
	// Persian text correctly.
	BOM  bool `yaml:"bom" envconfig:"BOM"`
	XLSX bool `yaml:"xlsx" envconfig:"XLSX"`
}

// envPrefix namespaces all environment variables, e.g. TSE_HTTP_TIMEOUT.
const envPrefix = "TSE"

// Load builds configuration from defaults, an optional YAML file and
// environment variables, then validates the result. An empty path probes
// the usual file locations; env and defaults apply either way.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// envconfig only touches fields whose TSE_* variable is set, so the
	// file and default values survive unless explicitly overridden.
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks field constraints and normalizes logging settings.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return err
	}

	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		c.Logging.Output = "stdout"
	}
	if c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}
	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/industrycsv.log"
	}

	return nil
}

// GetLogPath resolves a log file name against the configured log file's
// directory.
func (c *Config) GetLogPath(name string) string {
	return filepath.Join(filepath.Dir(c.Logging.FilePath), name)
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stdout",
			FilePath: "logs/industrycsv.log",
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			MaxAttempts:   5,
			BackoffFactor: 0.6,
			RateLimitRPS:  4,
			RateBurst:     1,
		},
		Paths: PathsConfig{
			OutputDir:    "industries",
			CombinedCSV:  "all_companies_with_industry.csv",
			CombinedXLSX: "all_companies_with_industry.xlsx",
		},
		Export: ExportConfig{
			BOM:  true,
			XLSX: false,
		},
	}
}

// findConfigFile probes common config file locations.
func findConfigFile() string {
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}
	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
