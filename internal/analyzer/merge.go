// Package analyzer orchestrates the graph construction pipeline: tier
// classification, concurrent extraction, result merging, and the analysis
// passes over the finished dependency tree.
package analyzer

import (
	"semgraph/internal/extract"
	"semgraph/internal/graph"
)

// DefaultHighConfidence is the cutoff above which an entity counts as
// high-confidence in the quality metrics.
const DefaultHighConfidence = 0.8

// Merge combines the three tiers' outputs into one graph bundle. Files are
// deduplicated across tiers with the native tier winning collisions, then
// aggregate statistics and quality metrics are recomputed from scratch.
func Merge(native, ai, generic []*extract.FileResult, highConfidence float64) *graph.SemanticGraphData {
	if highConfidence <= 0 {
		highConfidence = DefaultHighConfidence
	}

	data := &graph.SemanticGraphData{
		Entities:      []graph.CodeEntity{},
		Relationships: []graph.SemanticRelationship{},
		FileNodes:     map[string]string{},
	}

	seen := make(map[string]graph.Strategy)
	languageStrategy := make(map[string]graph.Strategy)
	filesByLanguage := make(map[string]int)

	appendTier := func(results []*extract.FileResult, tier graph.Strategy) {
		for _, result := range results {
			if result == nil {
				continue
			}
			file := result.File.RelativePath
			if _, dup := seen[file]; dup {
				// Native results were appended first and win collisions.
				continue
			}
			// A tier may hand back results produced at a lower tier, for
			// example generic floors when the analysis tool is disabled.
			// The breakdown reports what actually produced each result.
			strategy := result.Strategy
			if strategy == "" {
				strategy = tier
			}
			seen[file] = strategy

			data.Entities = append(data.Entities, result.Entities...)
			data.Relationships = append(data.Relationships, result.Relationships...)
			data.FileNodes[file] = graph.NodeID(file)

			language := result.File.Language
			if language == "" {
				language = extract.DetectLanguage(file)
			}
			if language == "" {
				language = "unknown"
			}
			filesByLanguage[language]++
			languageStrategy[language] = strategy

			switch strategy {
			case graph.StrategyNative:
				data.Stats.Strategy.Native++
			case graph.StrategyAI:
				data.Stats.Strategy.AI++
			default:
				data.Stats.Strategy.Generic++
			}
		}
	}

	appendTier(native, graph.StrategyNative)
	appendTier(ai, graph.StrategyAI)
	appendTier(generic, graph.StrategyGeneric)

	data.Stats.TotalFiles = len(seen)
	data.Stats.TotalEntities = len(data.Entities)
	data.Stats.TotalRelationships = len(data.Relationships)
	if len(filesByLanguage) > 0 {
		data.Stats.FilesByLanguage = filesByLanguage
	}
	data.Stats.Quality = computeQuality(data, languageStrategy, highConfidence)
	return data
}

// computeQuality derives the caller-visible quality metrics: average
// confidence over entities that carry one, the high-confidence count, and
// the cross-file relationship count.
func computeQuality(data *graph.SemanticGraphData, languageStrategy map[string]graph.Strategy, highConfidence float64) graph.QualityMetrics {
	quality := graph.QualityMetrics{}

	var sum float64
	var counted int
	for _, ent := range data.Entities {
		if ent.Meta.Confidence <= 0 {
			continue
		}
		sum += ent.Meta.Confidence
		counted++
		if ent.Meta.Confidence >= highConfidence {
			quality.HighConfidenceEntities++
		}
	}
	if counted > 0 {
		quality.AverageConfidence = sum / float64(counted)
	}

	for _, rel := range data.Relationships {
		if rel.TargetFile != "" && rel.TargetFile != rel.SourceFile {
			quality.CrossFileRelationships++
		}
	}

	if len(languageStrategy) > 0 {
		quality.LanguageStrategies = languageStrategy
	}
	return quality
}
