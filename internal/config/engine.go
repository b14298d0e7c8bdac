package config

import (
	"time"

	"semgraph/internal/analyzer"
	"semgraph/internal/extract"
	"semgraph/internal/graph"
)

// ToEngineConfig converts the file-level configuration into the analyzer's
// engine configuration. Zero-valued sections keep the engine defaults.
func (c *Config) ToEngineConfig(rootDir string) analyzer.Config {
	engineCfg := analyzer.Config{
		RootDir:        rootDir,
		Workers:        c.Analyzer.Workers,
		HighConfidence: c.Quality.HighConfidence,
		Classifier: extract.ClassifierConfig{
			MaxFileSize: c.Analyzer.MaxFileSize,
		},
		AI: extract.AIConfig{
			Tool:       c.AI.Tool,
			Args:       c.AI.Args,
			Timeout:    time.Duration(c.AI.TimeoutSecs) * time.Second,
			BatchSize:  c.AI.BatchSize,
			BatchDelay: time.Duration(c.AI.BatchDelayMS) * time.Millisecond,
		},
		AIDisabled: c.AI.Disabled || c.AI.Tool == "",
		Resolver: graph.ResolverConfig{
			ProbeExtensions: c.Resolver.ProbeExtensions,
			IndexNames:      c.Resolver.IndexNames,
			IncludeExternal: c.Resolver.IncludeExternal,
		},
		Cycles: graph.CycleConfig{
			CriticalLength:     c.Cycles.CriticalLength,
			CriticalComplexity: c.Cycles.CriticalComplexity,
			CriticalSize:       c.Cycles.CriticalSize,
			HighLength:         c.Cycles.HighLength,
			HighComplexity:     c.Cycles.HighComplexity,
			HighSize:           c.Cycles.HighSize,
			MediumLength:       c.Cycles.MediumLength,
			MediumComplexity:   c.Cycles.MediumComplexity,
		},
		Clusters: graph.ClusterConfig{
			MinDirectorySize:    c.Clusters.MinDirectorySize,
			MinDomainSize:       c.Clusters.MinDomainSize,
			MinRoleSize:         c.Clusters.MinRoleSize,
			SimilarityThreshold: c.Clusters.SimilarityThreshold,
		},
	}
	return engineCfg
}
