package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the config system:
// - Default() returns a valid configuration
// - Load() uses defaults when no config file exists
// - Load() merges .semgraph/config.yaml over defaults
// - SEMGRAPH_* environment variables override the file
// - Malformed YAML is a load error
// - Validate() rejects bad values with sentinel errors, joined
// - ToEngineConfig maps sections and derives the AI-disabled flag

func writeConfigFile(t *testing.T, rootDir, content string) {
	t.Helper()
	dir := filepath.Join(rootDir, ".semgraph")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644))
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, int64(1<<20), cfg.Analyzer.MaxFileSize)
	assert.NotEmpty(t, cfg.Paths.Include)
	assert.Contains(t, cfg.Paths.Ignore, "node_modules/**")
	assert.Empty(t, cfg.AI.Tool)
	assert.Equal(t, 5, cfg.AI.BatchSize)
	assert.InDelta(t, 0.8, cfg.Quality.HighConfidence, 1e-9)
	assert.Equal(t, ".semgraph/graph", cfg.Storage.Dir)
}

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfigFromDir(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeConfigFile(t, rootDir, `
analyzer:
  workers: 4
ai:
  tool: analyze-tool
  timeout_secs: 10
`)

	cfg, err := LoadConfigFromDir(rootDir)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Analyzer.Workers)
	assert.Equal(t, "analyze-tool", cfg.AI.Tool)
	assert.Equal(t, 10, cfg.AI.TimeoutSecs)
	// Untouched sections keep their defaults.
	assert.Equal(t, 5, cfg.AI.BatchSize)
	assert.Equal(t, int64(1<<20), cfg.Analyzer.MaxFileSize)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	rootDir := t.TempDir()
	writeConfigFile(t, rootDir, "ai:\n  tool: from-file\n")

	t.Setenv("SEMGRAPH_AI_TOOL", "from-env")
	t.Setenv("SEMGRAPH_ANALYZER_WORKERS", "8")

	cfg, err := LoadConfigFromDir(rootDir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.AI.Tool)
	assert.Equal(t, 8, cfg.Analyzer.Workers)
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeConfigFile(t, rootDir, "analyzer: [unclosed\n")

	_, err := LoadConfigFromDir(rootDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}

func TestLoad_InvalidValuesRejected(t *testing.T) {
	t.Parallel()

	rootDir := t.TempDir()
	writeConfigFile(t, rootDir, "analyzer:\n  workers: -1\n")

	_, err := LoadConfigFromDir(rootDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkers)
}

func TestValidate_SentinelErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"negative workers", func(c *Config) { c.Analyzer.Workers = -1 }, ErrInvalidWorkers},
		{"zero max file size", func(c *Config) { c.Analyzer.MaxFileSize = 0 }, ErrInvalidFileSize},
		{"no include patterns", func(c *Config) { c.Paths.Include = nil }, ErrEmptyPatterns},
		{"negative batch size", func(c *Config) { c.AI.BatchSize = -1 }, ErrInvalidBatch},
		{"threshold above one", func(c *Config) { c.Clusters.SimilarityThreshold = 1.5 }, ErrInvalidThreshold},
		{"confidence below zero", func(c *Config) { c.Quality.HighConfidence = -0.1 }, ErrInvalidThreshold},
		{"blank storage dir", func(c *Config) { c.Storage.Dir = "  " }, ErrEmptyStorageDir},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tc.mutate(cfg)
			assert.ErrorIs(t, Validate(cfg), tc.wantErr)
		})
	}
}

func TestValidate_JoinsMultipleErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Analyzer.Workers = -1
	cfg.Storage.Dir = ""

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkers)
	assert.ErrorIs(t, err, ErrEmptyStorageDir)
}

func TestValidate_BatchIgnoredWhenDisabled(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.AI.Disabled = true
	cfg.AI.BatchSize = -1

	assert.NoError(t, Validate(cfg))
}

func TestToEngineConfig(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Analyzer.Workers = 3
	cfg.AI.Tool = "analyze-tool"
	cfg.AI.TimeoutSecs = 12
	cfg.AI.BatchDelayMS = 250
	cfg.Resolver.IncludeExternal = true

	engineCfg := cfg.ToEngineConfig("/tmp/project")

	assert.Equal(t, "/tmp/project", engineCfg.RootDir)
	assert.Equal(t, 3, engineCfg.Workers)
	assert.Equal(t, int64(1<<20), engineCfg.Classifier.MaxFileSize)
	assert.Equal(t, "analyze-tool", engineCfg.AI.Tool)
	assert.Equal(t, 12*time.Second, engineCfg.AI.Timeout)
	assert.Equal(t, 250*time.Millisecond, engineCfg.AI.BatchDelay)
	assert.False(t, engineCfg.AIDisabled)
	assert.True(t, engineCfg.Resolver.IncludeExternal)
	assert.Equal(t, 5, engineCfg.Cycles.CriticalLength)
	assert.InDelta(t, 0.3, engineCfg.Clusters.SimilarityThreshold, 1e-9)
}

func TestToEngineConfig_DisablesAIWithoutTool(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.True(t, cfg.ToEngineConfig(".").AIDisabled)

	cfg.AI.Tool = "analyze-tool"
	cfg.AI.Disabled = true
	assert.True(t, cfg.ToEngineConfig(".").AIDisabled)
}
