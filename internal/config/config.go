// Package config provides configuration loading for dcardf.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/anngvu/annotation-meta-analysis/internal/logger"
	"github.com/anngvu/annotation-meta-analysis/pkg/turtle"
)

// Environment variables that override file settings
const (
	EnvBaseURI   = "DCA_BASE_URI"
	EnvWorkers   = "DCA_WORKERS"
	EnvLogLevel  = "DCA_LOG_LEVEL"
	EnvStorePath = "DCA_STORE_PATH"
)

// Config represents the complete dcardf configuration
type Config struct {
	// BaseURI is the system base under which project namespaces live
	BaseURI        string      `yaml:"base_uri"`
	Paths          PathsConfig `yaml:"paths"`
	IgnoreProjects []string    `yaml:"ignore_projects"`
	// Workers bounds how many projects are processed at once
	Workers  int         `yaml:"workers"`
	Fetch    FetchConfig `yaml:"fetch"`
	LogLevel string      `yaml:"log_level"`
}

// PathsConfig locates the input and output directories
type PathsConfig struct {
	DataModels      string `yaml:"data_models"`
	DataModelRDF    string `yaml:"data_model_rdf"`
	Templates       string `yaml:"templates"`
	EnrichmentRDF   string `yaml:"enrichment_rdf"`
	TemplateConfigs string `yaml:"template_configs"`
	Store           string `yaml:"store"`
	// URLs is the project index CSV
	URLs string `yaml:"urls"`
}

// FetchConfig configures downloads
type FetchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
}

// DefaultConfig returns a Config matching the directory layout of the
// analysis workspace
func DefaultConfig() *Config {
	return &Config{
		BaseURI: turtle.DefaultSystemBase,
		Paths: PathsConfig{
			DataModels:      "data_models",
			DataModelRDF:    "data_models_rdf",
			Templates:       "template_outputs",
			EnrichmentRDF:   "template_enrichment_rdf",
			TemplateConfigs: "template_configs",
			Store:           ".dcardf/store",
			URLs:            "data_model_urls.csv",
		},
		IgnoreProjects: []string{"demo", "demo_upsert"},
		Workers:        4,
		Fetch: FetchConfig{
			Timeout: 30 * time.Second,
			Retries: 3,
		},
		LogLevel: "info",
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.BaseURI == "" {
		return fmt.Errorf("base_uri is required")
	}
	if !strings.HasPrefix(c.BaseURI, "http://") && !strings.HasPrefix(c.BaseURI, "https://") {
		return fmt.Errorf("base_uri must be an http(s) URI, got %q", c.BaseURI)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if c.Fetch.Retries < 0 {
		return fmt.Errorf("fetch.retries must not be negative")
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// Ignored reports whether project is excluded from batch runs
func (c *Config) Ignored(project string) bool {
	return slices.Contains(c.IgnoreProjects, project)
}

// LoadFromFile loads configuration from a YAML file on top of the defaults
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// Load reads path when it is non-empty, then applies .env and environment
// overrides and validates the result
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	LoadEnv()
	if err := config.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil { // #nosec G306 - config is not secret
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.BaseURI != "" {
		c.BaseURI = other.BaseURI
	}

	mergeString(&c.Paths.DataModels, other.Paths.DataModels)
	mergeString(&c.Paths.DataModelRDF, other.Paths.DataModelRDF)
	mergeString(&c.Paths.Templates, other.Paths.Templates)
	mergeString(&c.Paths.EnrichmentRDF, other.Paths.EnrichmentRDF)
	mergeString(&c.Paths.TemplateConfigs, other.Paths.TemplateConfigs)
	mergeString(&c.Paths.Store, other.Paths.Store)
	mergeString(&c.Paths.URLs, other.Paths.URLs)

	// an explicit empty list clears the ignores
	if other.IgnoreProjects != nil {
		c.IgnoreProjects = other.IgnoreProjects
	}
	if other.Workers != 0 {
		c.Workers = other.Workers
	}
	if other.Fetch.Timeout != 0 {
		c.Fetch.Timeout = other.Fetch.Timeout
	}
	if other.Fetch.Retries != 0 {
		c.Fetch.Retries = other.Fetch.Retries
	}
	mergeString(&c.LogLevel, other.LogLevel)
}

func mergeString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

// LoadEnv loads a .env file from the working directory if there is one
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found, using system environment variables")
	}
}

// ApplyEnv overrides settings from DCA_* environment variables
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvBaseURI); ok && v != "" {
		c.BaseURI = v
	}
	if v, ok := os.LookupEnv(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := os.LookupEnv(EnvStorePath); ok && v != "" {
		c.Paths.Store = v
	}
	return nil
}
