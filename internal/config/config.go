// Package config loads and validates the semgraph configuration from
// .semgraph/config.yaml with SEMGRAPH_* environment overrides.
package config

// Config represents the complete semgraph configuration.
type Config struct {
	Analyzer AnalyzerConfig `yaml:"analyzer" mapstructure:"analyzer"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	AI       AIConfig       `yaml:"ai" mapstructure:"ai"`
	Resolver ResolverConfig `yaml:"resolver" mapstructure:"resolver"`
	Cycles   CyclesConfig   `yaml:"cycles" mapstructure:"cycles"`
	Clusters ClustersConfig `yaml:"clusters" mapstructure:"clusters"`
	Quality  QualityConfig  `yaml:"quality" mapstructure:"quality"`
	Storage  StorageConfig  `yaml:"storage" mapstructure:"storage"`
}

// AnalyzerConfig tunes the extraction pipeline.
type AnalyzerConfig struct {
	Workers     int   `yaml:"workers" mapstructure:"workers"`             // worker pool size, 0 = NumCPU
	MaxFileSize int64 `yaml:"max_file_size" mapstructure:"max_file_size"` // bytes; larger files route to generic extraction
}

// PathsConfig defines which files to analyze and which to ignore.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for source files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to skip
}

// AIConfig configures the external analysis tool fallback.
type AIConfig struct {
	Tool         string   `yaml:"tool" mapstructure:"tool"`                     // analysis CLI binary; empty disables the tier
	Args         []string `yaml:"args" mapstructure:"args"`                     // extra arguments
	TimeoutSecs  int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`     // per-invocation timeout
	BatchSize    int      `yaml:"batch_size" mapstructure:"batch_size"`         // files per batch
	BatchDelayMS int      `yaml:"batch_delay_ms" mapstructure:"batch_delay_ms"` // pause between batches
	Disabled     bool     `yaml:"disabled" mapstructure:"disabled"`
}

// ResolverConfig tunes cross-file import resolution.
type ResolverConfig struct {
	ProbeExtensions []string `yaml:"probe_extensions" mapstructure:"probe_extensions"`
	IndexNames      []string `yaml:"index_names" mapstructure:"index_names"`
	IncludeExternal bool     `yaml:"include_external" mapstructure:"include_external"`
}

// CyclesConfig holds cycle severity thresholds. These are heuristic
// cutoffs, kept configurable rather than baked in.
type CyclesConfig struct {
	CriticalLength     int   `yaml:"critical_length" mapstructure:"critical_length"`
	CriticalComplexity int   `yaml:"critical_complexity" mapstructure:"critical_complexity"`
	CriticalSize       int64 `yaml:"critical_size" mapstructure:"critical_size"`
	HighLength         int   `yaml:"high_length" mapstructure:"high_length"`
	HighComplexity     int   `yaml:"high_complexity" mapstructure:"high_complexity"`
	HighSize           int64 `yaml:"high_size" mapstructure:"high_size"`
	MediumLength       int   `yaml:"medium_length" mapstructure:"medium_length"`
	MediumComplexity   int   `yaml:"medium_complexity" mapstructure:"medium_complexity"`
}

// ClustersConfig holds cluster grouping thresholds.
type ClustersConfig struct {
	MinDirectorySize    int     `yaml:"min_directory_size" mapstructure:"min_directory_size"`
	MinDomainSize       int     `yaml:"min_domain_size" mapstructure:"min_domain_size"`
	MinRoleSize         int     `yaml:"min_role_size" mapstructure:"min_role_size"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
}

// QualityConfig holds the quality metric cutoffs.
type QualityConfig struct {
	HighConfidence float64 `yaml:"high_confidence" mapstructure:"high_confidence"`
}

// StorageConfig defines where the built graph is persisted.
type StorageConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"` // graph output directory, default .semgraph/graph
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			Workers:     0,
			MaxFileSize: 1 << 20,
		},
		Paths: PathsConfig{
			Include: []string{
				"**/*.go",
				"**/*.ts",
				"**/*.tsx",
				"**/*.js",
				"**/*.jsx",
				"**/*.py",
				"**/*.java",
				"**/*.rs",
				"**/*.rb",
				"**/*.php",
				"**/*.c",
				"**/*.cpp",
				"**/*.cs",
				"**/*.kt",
				"**/*.swift",
			},
			Ignore: []string{
				"node_modules/**",
				"vendor/**",
				".git/**",
				"dist/**",
				"build/**",
				"target/**",
				"__pycache__/**",
				".semgraph/**",
			},
		},
		AI: AIConfig{
			Tool:         "",
			TimeoutSecs:  30,
			BatchSize:    5,
			BatchDelayMS: 1000,
		},
		Resolver: ResolverConfig{
			ProbeExtensions: nil, // resolver defaults apply
			IndexNames:      nil,
			IncludeExternal: false,
		},
		Cycles: CyclesConfig{
			CriticalLength:     5,
			CriticalComplexity: 50,
			CriticalSize:       10000,
			HighLength:         3,
			HighComplexity:     20,
			HighSize:           5000,
			MediumLength:       2,
			MediumComplexity:   10,
		},
		Clusters: ClustersConfig{
			MinDirectorySize:    2,
			MinDomainSize:       2,
			MinRoleSize:         3,
			SimilarityThreshold: 0.3,
		},
		Quality: QualityConfig{
			HighConfidence: 0.8,
		},
		Storage: StorageConfig{
			Dir: ".semgraph/graph",
		},
	}
}
