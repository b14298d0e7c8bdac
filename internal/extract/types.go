// Package extract implements the three extraction tiers that turn source
// files into semantic entities and relationships: native AST parsing,
// external-analysis fallback, and the generic single-entity floor.
package extract

import (
	"context"
	"path"
	"strings"

	"semgraph/internal/graph"
)

// Tier tags which extraction strategy the classifier selected for a file.
type Tier string

const (
	TierNative  Tier = "native"
	TierAI      Tier = "ai"
	TierGeneric Tier = "generic"
)

// Extraction confidence levels. Native parses are trusted, regex-recovered
// names from a non-JSON tool response carry 0.5, and the generic floor 0.3.
const (
	nativeEntityConfidence    = 0.9
	nativeImportConfidence    = 0.95
	nativeCallConfidence      = 0.8
	recoveredConfidence       = 0.5
	genericConfidence         = 0.3
	defaultResponseConfidence = 0.7
)

// FileResult is the per-file output of an extractor tier.
type FileResult struct {
	File          graph.FileRecord
	Entities      []graph.CodeEntity
	Relationships []graph.SemanticRelationship
	Strategy      graph.Strategy
}

// Extractor is the single capability all three tiers implement. Extract
// never mutates the file record. The native tier returns an error on parse
// failure so the engine can reroute the file to the fallback tier; the
// fallback and generic tiers never return errors.
type Extractor interface {
	Strategy() graph.Strategy
	Extract(ctx context.Context, file graph.FileRecord, source []byte) (*FileResult, error)
}

// DetectLanguage maps a file path to a language name by extension.
// Returns "" for unrecognized extensions.
func DetectLanguage(filePath string) string {
	ext := strings.ToLower(path.Ext(filePath))
	switch ext {
	case ".ts", ".tsx":
		return "typescript"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".py":
		return "python"
	case ".go":
		return "go"
	case ".java":
		return "java"
	case ".rs":
		return "rust"
	case ".rb":
		return "ruby"
	case ".php":
		return "php"
	case ".c", ".h":
		return "c"
	case ".cpp", ".cc", ".cxx", ".hpp":
		return "cpp"
	case ".cs":
		return "csharp"
	case ".kt", ".kts":
		return "kotlin"
	case ".swift":
		return "swift"
	case ".scala":
		return "scala"
	case ".vue":
		return "vue"
	case ".svelte":
		return "svelte"
	default:
		return ""
	}
}

// moduleName derives the module entity name for a file: the base name
// without extension.
func moduleName(relPath string) string {
	base := path.Base(strings.ReplaceAll(relPath, "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// countLines returns the 1-indexed line count of a source buffer.
func countLines(source []byte) int {
	if len(source) == 0 {
		return 1
	}
	n := 1
	for _, b := range source {
		if b == '\n' {
			n++
		}
	}
	return n
}

// moduleEntity builds the file-level module entity every tier anchors on.
func moduleEntity(file graph.FileRecord, language string, endLine int, confidence float64, strategy graph.Strategy, reason string) graph.CodeEntity {
	name := moduleName(file.RelativePath)
	return graph.CodeEntity{
		ID:        graph.EntityID(file.RelativePath, graph.EntityModule, name, 1),
		Name:      name,
		Kind:      graph.EntityModule,
		File:      file.RelativePath,
		StartLine: 1,
		EndLine:   endLine,
		Meta: graph.EntityMeta{
			Language:   language,
			Confidence: confidence,
			Strategy:   strategy,
			Reason:     reason,
		},
	}
}
