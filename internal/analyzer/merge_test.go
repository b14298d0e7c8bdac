package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semgraph/internal/extract"
	"semgraph/internal/graph"
)

// Test Plan for result merging:
// - Outputs of all three tiers land in one graph with per-tier counts
// - The breakdown counts each result by the strategy that produced it
// - A file present in several tiers keeps only the highest tier's result
// - Quality metrics: average confidence, high-confidence count,
//   cross-file relationship count, language-to-strategy mapping
// - Empty inputs produce an empty but well-formed graph

func tierResult(relPath, language string, strategy graph.Strategy, confidences ...float64) *extract.FileResult {
	result := &extract.FileResult{
		File:     graph.FileRecord{RelativePath: relPath, Language: language, Type: "file"},
		Strategy: strategy,
	}
	for i, confidence := range confidences {
		result.Entities = append(result.Entities, graph.CodeEntity{
			ID:   graph.NodeID(relPath) + string(rune('a'+i)),
			Name: relPath,
			Kind: graph.EntityFunction,
			File: relPath,
			Meta: graph.EntityMeta{Language: language, Confidence: confidence, Strategy: strategy},
		})
	}
	return result
}

func TestMerge_CombinesTiers(t *testing.T) {
	t.Parallel()

	data := Merge(
		[]*extract.FileResult{tierResult("a.ts", "typescript", graph.StrategyNative, 0.9)},
		[]*extract.FileResult{tierResult("b.rb", "ruby", graph.StrategyAI, 0.7)},
		[]*extract.FileResult{tierResult("c.csv", "", graph.StrategyGeneric, 0.3)},
		0,
	)

	assert.Equal(t, 3, data.Stats.TotalFiles)
	assert.Equal(t, 3, data.Stats.TotalEntities)
	assert.Equal(t, 1, data.Stats.Strategy.Native)
	assert.Equal(t, 1, data.Stats.Strategy.AI)
	assert.Equal(t, 1, data.Stats.Strategy.Generic)
	assert.Len(t, data.FileNodes, 3)
	assert.Equal(t, 1, data.Stats.FilesByLanguage["typescript"])
	assert.Equal(t, 1, data.Stats.FilesByLanguage["ruby"])
}

func TestMerge_CountsFlooredResultsAsGeneric(t *testing.T) {
	t.Parallel()

	// Rerouted files come back through the analysis slot carrying the
	// generic strategy when the tool is disabled. The breakdown must
	// reflect what produced the result, not which slot delivered it.
	data := Merge(
		[]*extract.FileResult{tierResult("good.ts", "typescript", graph.StrategyNative, 0.9)},
		[]*extract.FileResult{tierResult("missing.ts", "typescript", graph.StrategyGeneric, 0.3)},
		nil,
		0,
	)

	assert.Equal(t, 1, data.Stats.Strategy.Native)
	assert.Zero(t, data.Stats.Strategy.AI)
	assert.Equal(t, 1, data.Stats.Strategy.Generic)
	assert.Equal(t, graph.StrategyGeneric, data.Stats.Quality.LanguageStrategies["typescript"])
}

func TestMerge_NativeWinsCollisions(t *testing.T) {
	t.Parallel()

	data := Merge(
		[]*extract.FileResult{tierResult("a.ts", "typescript", graph.StrategyNative, 0.9)},
		[]*extract.FileResult{tierResult("a.ts", "typescript", graph.StrategyAI, 0.7)},
		[]*extract.FileResult{tierResult("a.ts", "typescript", graph.StrategyGeneric, 0.3)},
		0,
	)

	assert.Equal(t, 1, data.Stats.TotalFiles)
	require.Len(t, data.Entities, 1)
	assert.InDelta(t, 0.9, data.Entities[0].Meta.Confidence, 1e-9)
	assert.Equal(t, 1, data.Stats.Strategy.Native)
	assert.Zero(t, data.Stats.Strategy.AI)
	assert.Zero(t, data.Stats.Strategy.Generic)
}

func TestMerge_QualityMetrics(t *testing.T) {
	t.Parallel()

	native := tierResult("a.ts", "typescript", graph.StrategyNative, 0.9, 0.8)
	native.Relationships = append(native.Relationships,
		graph.SemanticRelationship{SourceFile: "a.ts", TargetFile: "b.rb", Kind: graph.RelImports},
		graph.SemanticRelationship{SourceFile: "a.ts", TargetFile: "a.ts", Kind: graph.RelContains},
		graph.SemanticRelationship{SourceFile: "a.ts", Kind: graph.RelCalls},
	)
	ai := tierResult("b.rb", "ruby", graph.StrategyAI, 0.4)

	data := Merge([]*extract.FileResult{native}, []*extract.FileResult{ai}, nil, 0.8)

	quality := data.Stats.Quality
	assert.InDelta(t, (0.9+0.8+0.4)/3, quality.AverageConfidence, 1e-9)
	assert.Equal(t, 2, quality.HighConfidenceEntities)
	// Only the a.ts -> b.rb edge crosses a file boundary.
	assert.Equal(t, 1, quality.CrossFileRelationships)
	assert.Equal(t, graph.StrategyNative, quality.LanguageStrategies["typescript"])
	assert.Equal(t, graph.StrategyAI, quality.LanguageStrategies["ruby"])
}

func TestMerge_DetectsLanguageWhenRecordLacksIt(t *testing.T) {
	t.Parallel()

	result := tierResult("src/app.py", "", graph.StrategyNative, 0.9)
	data := Merge([]*extract.FileResult{result}, nil, nil, 0)

	assert.Equal(t, 1, data.Stats.FilesByLanguage["python"])
}

func TestMerge_Empty(t *testing.T) {
	t.Parallel()

	data := Merge(nil, nil, nil, 0)

	assert.NotNil(t, data.Entities)
	assert.NotNil(t, data.Relationships)
	assert.NotNil(t, data.FileNodes)
	assert.Zero(t, data.Stats.TotalFiles)
	assert.Zero(t, data.Stats.Quality.AverageConfidence)
}

func TestMerge_NilResultsSkipped(t *testing.T) {
	t.Parallel()

	data := Merge([]*extract.FileResult{nil, tierResult("a.ts", "typescript", graph.StrategyNative, 0.9)}, nil, nil, 0)
	assert.Equal(t, 1, data.Stats.TotalFiles)
}
