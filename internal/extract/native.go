package extract

import (
	"context"
	"sort"

	"semgraph/internal/graph"
)

// languageParser is the per-language parsing contract behind the native
// tier. Implementations emit into a fileEmitter and return an error when
// the source does not parse, which reroutes the file to the analysis tier.
type languageParser interface {
	parse(file graph.FileRecord, source []byte) (*FileResult, error)
}

// Native is the native-AST extraction tier. It multiplexes per-language
// parsers keyed by detected language.
type Native struct {
	parsers map[string]languageParser
}

// NewNative builds the native tier with all registered language parsers.
func NewNative() *Native {
	ts := newTypeScriptParser()
	return &Native{
		parsers: map[string]languageParser{
			"typescript": ts,
			"javascript": ts,
			"python":     newPythonParser(),
			"java":       newJavaParser(),
			"rust":       newRustParser(),
			"go":         newGoParser(),
		},
	}
}

// Languages returns the sorted set of natively supported languages.
func (n *Native) Languages() []string {
	langs := make([]string, 0, len(n.parsers))
	for lang := range n.parsers {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Strategy implements Extractor.
func (n *Native) Strategy() graph.Strategy { return graph.StrategyNative }

// Extract parses the file with its language's native parser.
func (n *Native) Extract(ctx context.Context, file graph.FileRecord, source []byte) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	language := file.Language
	if language == "" {
		language = DetectLanguage(file.RelativePath)
	}
	parser, ok := n.parsers[language]
	if !ok {
		return nil, &ParseError{File: file.RelativePath, Language: language, Detail: "no native parser registered"}
	}
	return parser.parse(file, source)
}

// fileEmitter accumulates one file's entities and relationships and tracks
// locally defined symbol names so call expressions can be resolved to
// local targets.
type fileEmitter struct {
	file     graph.FileRecord
	language string
	module   string
	result   *FileResult
	locals   map[string]bool
}

func newFileEmitter(file graph.FileRecord, language string, lineCount int) *fileEmitter {
	e := &fileEmitter{
		file:     file,
		language: language,
		module:   moduleName(file.RelativePath),
		result: &FileResult{
			File:          file,
			Strategy:      graph.StrategyNative,
			Entities:      []graph.CodeEntity{},
			Relationships: []graph.SemanticRelationship{},
		},
		locals: make(map[string]bool),
	}
	e.result.Entities = append(e.result.Entities,
		moduleEntity(file, language, lineCount, nativeEntityConfidence, graph.StrategyNative, ""))
	return e
}

// addEntity records an entity and registers its name as a local symbol.
func (e *fileEmitter) addEntity(name string, kind graph.EntityKind, start, end int, signature string, modifiers []string) {
	if name == "" {
		return
	}
	e.result.Entities = append(e.result.Entities, graph.CodeEntity{
		ID:        graph.EntityID(e.file.RelativePath, kind, name, start),
		Name:      name,
		Kind:      kind,
		File:      e.file.RelativePath,
		StartLine: start,
		EndLine:   end,
		Signature: signature,
		Modifiers: modifiers,
		Meta: graph.EntityMeta{
			Language:   e.language,
			Confidence: nativeEntityConfidence,
			Strategy:   graph.StrategyNative,
		},
	})
	e.locals[name] = true
}

// addRelationship records a typed relationship originating in this file.
func (e *fileEmitter) addRelationship(source, target string, kind graph.RelationshipKind, line int, confidence float64) {
	if source == "" || target == "" {
		return
	}
	e.result.Relationships = append(e.result.Relationships, graph.SemanticRelationship{
		ID:           graph.RelationshipID(e.file.RelativePath, source, target, kind, line),
		SourceFile:   e.file.RelativePath,
		SourceEntity: source,
		TargetEntity: target,
		Kind:         kind,
		Confidence:   confidence,
		Line:         line,
		Meta: graph.RelationshipMeta{
			Language: e.language,
			Strategy: graph.StrategyNative,
		},
	})
}

// addImport records an IMPORTS relationship from the module entity to the
// raw import specifier. Cross-file resolution turns these into edges.
func (e *fileEmitter) addImport(target string, line int) {
	e.addRelationship(e.module, target, graph.RelImports, line, nativeImportConfidence)
}

// addCall records a CALLS relationship when the callee is a known local
// symbol.
func (e *fileEmitter) addCall(caller, callee string, line int) {
	if caller == "" || !e.locals[callee] {
		return
	}
	e.addRelationship(caller, callee, graph.RelCalls, line, nativeCallConfidence)
}

// isLocal reports whether name was defined in this file.
func (e *fileEmitter) isLocal(name string) bool {
	return e.locals[name]
}
