package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (SEMGRAPH_*)
// 2. Config file (.semgraph/config.yml or .semgraph/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".semgraph")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("SEMGRAPH")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., SEMGRAPH_AI_TOOL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind environment variables to config keys
	v.BindEnv("analyzer.workers")
	v.BindEnv("analyzer.max_file_size")
	v.BindEnv("ai.tool")
	v.BindEnv("ai.timeout_secs")
	v.BindEnv("ai.batch_size")
	v.BindEnv("ai.batch_delay_ms")
	v.BindEnv("ai.disabled")
	v.BindEnv("resolver.include_external")
	v.BindEnv("clusters.similarity_threshold")
	v.BindEnv("quality.high_confidence")
	v.BindEnv("storage.dir")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable: defaults + env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("analyzer.workers", defaults.Analyzer.Workers)
	v.SetDefault("analyzer.max_file_size", defaults.Analyzer.MaxFileSize)

	v.SetDefault("paths.include", defaults.Paths.Include)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("ai.tool", defaults.AI.Tool)
	v.SetDefault("ai.timeout_secs", defaults.AI.TimeoutSecs)
	v.SetDefault("ai.batch_size", defaults.AI.BatchSize)
	v.SetDefault("ai.batch_delay_ms", defaults.AI.BatchDelayMS)
	v.SetDefault("ai.disabled", defaults.AI.Disabled)

	v.SetDefault("resolver.probe_extensions", defaults.Resolver.ProbeExtensions)
	v.SetDefault("resolver.index_names", defaults.Resolver.IndexNames)
	v.SetDefault("resolver.include_external", defaults.Resolver.IncludeExternal)

	v.SetDefault("cycles.critical_length", defaults.Cycles.CriticalLength)
	v.SetDefault("cycles.critical_complexity", defaults.Cycles.CriticalComplexity)
	v.SetDefault("cycles.critical_size", defaults.Cycles.CriticalSize)
	v.SetDefault("cycles.high_length", defaults.Cycles.HighLength)
	v.SetDefault("cycles.high_complexity", defaults.Cycles.HighComplexity)
	v.SetDefault("cycles.high_size", defaults.Cycles.HighSize)
	v.SetDefault("cycles.medium_length", defaults.Cycles.MediumLength)
	v.SetDefault("cycles.medium_complexity", defaults.Cycles.MediumComplexity)

	v.SetDefault("clusters.min_directory_size", defaults.Clusters.MinDirectorySize)
	v.SetDefault("clusters.min_domain_size", defaults.Clusters.MinDomainSize)
	v.SetDefault("clusters.min_role_size", defaults.Clusters.MinRoleSize)
	v.SetDefault("clusters.similarity_threshold", defaults.Clusters.SimilarityThreshold)

	v.SetDefault("quality.high_confidence", defaults.Quality.HighConfidence)

	v.SetDefault("storage.dir", defaults.Storage.Dir)
}

// LoadConfig loads configuration from the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
