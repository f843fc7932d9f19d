// Package config provides configuration management.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "covid-report/internal/errors"
	"covid-report/internal/logging"
)

// EnvPrefix is the prefix for environment overrides, e.g. COVID_REPORT_REPORT_STATE.
const EnvPrefix = "COVID_REPORT"

// Config is the main application configuration
type Config struct {
	// Source contains input retrieval settings
	Source SourceConfig `json:"source" mapstructure:"source"`

	// Pipeline contains transformation settings
	Pipeline PipelineConfig `json:"pipeline" mapstructure:"pipeline"`

	// Report contains output settings
	Report ReportConfig `json:"report" mapstructure:"report"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" mapstructure:"logging"`
}

// SourceConfig controls where the CSV inputs come from
type SourceConfig struct {
	// Manifest is an HCL dataset manifest; empty uses the built-in one
	Manifest string `json:"manifest" mapstructure:"manifest"`

	// DataDir reads every source file from this directory instead of the network
	DataDir string `json:"data_dir" mapstructure:"data_dir"`

	// Timeout bounds each fetch
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// UserAgent is sent with HTTP requests
	UserAgent string `json:"user_agent" mapstructure:"user_agent"`
}

// PipelineConfig contains transformation settings
type PipelineConfig struct {
	// FilterZeroCases drops global rows with no cases before enrichment
	FilterZeroCases bool `json:"filter_zero_cases" mapstructure:"filter_zero_cases"`

	// Concurrency is how many inputs load at once; 0 or 1 loads them one at a time
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
}

// ReportConfig contains output settings
type ReportConfig struct {
	// OutDir receives report.html and any exports
	OutDir string `json:"out_dir" mapstructure:"out_dir"`

	// State is the single state charted on its own
	State string `json:"state" mapstructure:"state"`

	// Country is the country whose totals are charted
	Country string `json:"country" mapstructure:"country"`

	// TopN is the size of the ranked tables
	TopN int `json:"top_n" mapstructure:"top_n"`

	// PreviewRows is how many rows of each intermediate table are printed
	PreviewRows int `json:"preview_rows" mapstructure:"preview_rows"`

	// HTML writes the chart page
	HTML bool `json:"html" mapstructure:"html"`

	// JSON writes report.json
	JSON bool `json:"json" mapstructure:"json"`

	// CSV writes the aggregate and summary tables as CSV
	CSV bool `json:"csv" mapstructure:"csv"`

	// Database is a SQLite file to export into; empty disables the export
	Database string `json:"database" mapstructure:"database"`

	// NoColor disables ANSI colors in terminal output
	NoColor bool `json:"no_color" mapstructure:"no_color"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			Timeout:   2 * time.Minute,
			UserAgent: "covid-report/0.1",
		},
		Pipeline: PipelineConfig{
			FilterZeroCases: true,
			Concurrency:     1,
		},
		Report: ReportConfig{
			OutDir:      "report",
			State:       "New York",
			Country:     "US",
			TopN:        10,
			PreviewRows: 5,
			HTML:        true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads configuration from defaults, an optional file and the environment.
// An empty path searches ./covid-report.yaml and $HOME/.config/covid-report.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("covid-report")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "covid-report"))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, apperrors.Wrap(apperrors.TypeConfig, "read config", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.TypeConfig, "decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Source.Timeout <= 0 {
		return apperrors.Config("source.timeout must be positive")
	}
	if c.Pipeline.Concurrency < 0 {
		return apperrors.Config("pipeline.concurrency must not be negative")
	}
	if c.Report.TopN <= 0 {
		return apperrors.Config("report.top_n must be positive")
	}
	if c.Report.PreviewRows < 0 {
		return apperrors.Config("report.preview_rows must not be negative")
	}
	if c.Report.OutDir == "" {
		return apperrors.Config("report.out_dir is required")
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("source.manifest", d.Source.Manifest)
	v.SetDefault("source.data_dir", d.Source.DataDir)
	v.SetDefault("source.timeout", d.Source.Timeout)
	v.SetDefault("source.user_agent", d.Source.UserAgent)

	v.SetDefault("pipeline.filter_zero_cases", d.Pipeline.FilterZeroCases)
	v.SetDefault("pipeline.concurrency", d.Pipeline.Concurrency)

	v.SetDefault("report.out_dir", d.Report.OutDir)
	v.SetDefault("report.state", d.Report.State)
	v.SetDefault("report.country", d.Report.Country)
	v.SetDefault("report.top_n", d.Report.TopN)
	v.SetDefault("report.preview_rows", d.Report.PreviewRows)
	v.SetDefault("report.html", d.Report.HTML)
	v.SetDefault("report.json", d.Report.JSON)
	v.SetDefault("report.csv", d.Report.CSV)
	v.SetDefault("report.database", d.Report.Database)
	v.SetDefault("report.no_color", d.Report.NoColor)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
	v.SetDefault("logging.development", d.Logging.Development)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
