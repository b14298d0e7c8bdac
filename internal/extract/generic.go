package extract

import (
	"context"

	"semgraph/internal/graph"
)

// Generic is the fallback extraction floor: one module-level entity per
// file, no relationships. It never fails.
type Generic struct{}

// NewGeneric builds the generic tier.
func NewGeneric() *Generic { return &Generic{} }

// Strategy implements Extractor.
func (g *Generic) Strategy() graph.Strategy { return graph.StrategyGeneric }

// Extract emits the single module entity for the file.
func (g *Generic) Extract(ctx context.Context, file graph.FileRecord, source []byte) (*FileResult, error) {
	language := file.Language
	if language == "" {
		language = DetectLanguage(file.RelativePath)
	}
	return &FileResult{
		File:     file,
		Strategy: graph.StrategyGeneric,
		Entities: []graph.CodeEntity{
			moduleEntity(file, language, countLines(source), genericConfidence, graph.StrategyGeneric, "generic fallback"),
		},
		Relationships: []graph.SemanticRelationship{},
	}, nil
}
