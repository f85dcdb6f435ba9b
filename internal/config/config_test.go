package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://dca.app.sagebionetworks.org", cfg.BaseURI)
	assert.Equal(t, "data_models", cfg.Paths.DataModels)
	assert.Equal(t, "data_model_urls.csv", cfg.Paths.URLs)
	assert.True(t, cfg.Ignored("demo"))
	assert.True(t, cfg.Ignored("demo_upsert"))
	assert.False(t, cfg.Ignored("NF-OSI"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base", func(c *Config) { c.BaseURI = "" }},
		{"non-http base", func(c *Config) { c.BaseURI = "urn:dca" }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"negative retries", func(c *Config) { c.Fetch.Retries = -1 }},
		{"bad level", func(c *Config) { c.LogLevel = "chatty" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dcardf.yaml")
	content := `base_uri: https://example.org/dca
paths:
  data_models: models
workers: 2
fetch:
  timeout: 5s
ignore_projects: []
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/dca", cfg.BaseURI)
	assert.Equal(t, "models", cfg.Paths.DataModels)
	// unset keys keep their defaults
	assert.Equal(t, "data_models_rdf", cfg.Paths.DataModelRDF)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 3, cfg.Fetch.Retries)
	assert.Empty(t, cfg.IgnoreProjects)
	assert.False(t, cfg.Ignored("demo"))
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dcardf.yaml")
	cfg := DefaultConfig()
	cfg.Workers = 8

	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestMerge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(&Config{
		Paths:    PathsConfig{Store: "/tmp/store"},
		Workers:  1,
		LogLevel: "debug",
	})

	assert.Equal(t, "/tmp/store", cfg.Paths.Store)
	assert.Equal(t, "data_models", cfg.Paths.DataModels)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"demo", "demo_upsert"}, cfg.IgnoreProjects)

	cfg.Merge(nil)
	assert.Equal(t, 1, cfg.Workers)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvBaseURI, "https://example.org")
	t.Setenv(EnvWorkers, "16")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvStorePath, "/var/lib/dcardf")

	cfg := DefaultConfig()
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "https://example.org", cfg.BaseURI)
	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "/var/lib/dcardf", cfg.Paths.Store)
}

func TestApplyEnv_InvalidWorkers(t *testing.T) {
	t.Setenv(EnvWorkers, "many")

	cfg := DefaultConfig()
	assert.Error(t, cfg.ApplyEnv())
}
