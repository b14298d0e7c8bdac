package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"semgraph/internal/graph"
)

// AIConfig configures the external-analysis fallback tier.
type AIConfig struct {
	// Tool is the external analysis CLI binary name.
	Tool string
	// Args are passed before the prompt is written to stdin.
	Args []string
	// Timeout bounds one tool invocation.
	Timeout time.Duration
	// BatchSize is the number of files analyzed per batch.
	BatchSize int
	// BatchDelay is the pause between batches, respecting tool rate limits.
	BatchDelay time.Duration
	// MaxPromptBytes truncates source content embedded in the prompt.
	MaxPromptBytes int
}

// AI tier defaults.
const (
	DefaultAITimeout        = 30 * time.Second
	DefaultAIBatchSize      = 5
	DefaultAIBatchDelay     = time.Second
	DefaultAIMaxPromptBytes = 16 << 10
)

// aiResponse is the JSON shape the external tool is asked to produce.
type aiResponse struct {
	Entities []struct {
		Name      string   `json:"name"`
		Type      string   `json:"type"`
		StartLine int      `json:"startLine"`
		EndLine   int      `json:"endLine"`
		Signature string   `json:"signature,omitempty"`
		Modifiers []string `json:"modifiers,omitempty"`
	} `json:"entities"`
	Relationships []struct {
		SourceEntity     string  `json:"sourceEntity"`
		TargetEntity     string  `json:"targetEntity"`
		RelationshipType string  `json:"relationshipType"`
		LineNumber       int     `json:"lineNumber,omitempty"`
		Confidence       float64 `json:"confidence,omitempty"`
	} `json:"relationships"`
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// AI is the external-analysis fallback tier. Extract never returns an
// error: every failure degrades to the generic single-entity result with
// the reason recorded on the entity.
type AI struct {
	runner ExecRunner
	cfg    AIConfig
}

// NewAI builds the analysis tier. A nil runner gets a RealRunner bound by
// the configured timeout.
func NewAI(cfg AIConfig, runner ExecRunner) *AI {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultAITimeout
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultAIBatchSize
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = DefaultAIBatchDelay
	}
	if cfg.MaxPromptBytes <= 0 {
		cfg.MaxPromptBytes = DefaultAIMaxPromptBytes
	}
	if runner == nil {
		runner = NewRealRunner(cfg.Timeout)
	}
	return &AI{runner: runner, cfg: cfg}
}

// Strategy implements Extractor.
func (a *AI) Strategy() graph.Strategy { return graph.StrategyAI }

// Extract analyzes one file through the external tool.
func (a *AI) Extract(ctx context.Context, file graph.FileRecord, source []byte) (*FileResult, error) {
	language := file.Language
	if language == "" {
		language = DetectLanguage(file.RelativePath)
	}

	if a.cfg.Tool == "" {
		return a.fallbackResult(file, language, source, "no analysis tool configured"), nil
	}
	if ctx.Err() != nil {
		return a.fallbackResult(file, language, source, "analysis cancelled"), nil
	}

	prompt := a.buildPrompt(file, language, source)

	// Cancellation gates starting the call above; once the tool is
	// running it finishes or times out on its own clock.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Timeout)
	defer cancel()

	stdout, stderr, err := a.runner.Run(callCtx, a.cfg.Tool, a.cfg.Args, prompt)
	if err != nil {
		log.Printf("Warning: analysis tool failed for %s: %v", file.RelativePath, err)
		reason := "tool invocation failed: " + err.Error()
		if callCtx.Err() == context.DeadlineExceeded {
			reason = "tool timed out"
		} else if snippet := stderrSnippet(stderr); snippet != "" {
			reason += " (" + snippet + ")"
		}
		return a.fallbackResult(file, language, source, reason), nil
	}

	if result := a.parseResponse(stdout, file, language, source); result != nil {
		return result, nil
	}
	if result := a.recoverFromText(stdout, file, language, source); result != nil {
		return result, nil
	}
	return a.fallbackResult(file, language, source, "unparseable tool response"), nil
}

// ExtractBatch analyzes files in fixed-size batches with an inter-batch
// delay. Files within a batch run concurrently; one file's failure never
// affects the others. Results keep input order. Cancellation stops new
// batches but lets the in-flight batch finish or time out on its own.
func (a *AI) ExtractBatch(ctx context.Context, files []graph.FileRecord, sources [][]byte) []*FileResult {
	results := make([]*FileResult, len(files))
	if len(files) == 0 {
		return results
	}

	batchSize := a.cfg.BatchSize
	numBatches := (len(files) + batchSize - 1) / batchSize

	for batchIdx := 0; batchIdx < numBatches; batchIdx++ {
		start := batchIdx * batchSize
		end := start + batchSize
		if end > len(files) {
			end = len(files)
		}

		if batchIdx > 0 {
			if err := a.waitBatchDelay(ctx); err != nil {
				a.fillRemaining(results, start, files, sources, "analysis cancelled")
				return results
			}
		} else if ctx.Err() != nil {
			a.fillRemaining(results, start, files, sources, "analysis cancelled")
			return results
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				result, _ := a.Extract(ctx, files[i], sources[i])
				results[i] = result
			}(i)
		}
		wg.Wait()
	}

	return results
}

func (a *AI) waitBatchDelay(ctx context.Context) error {
	if a.cfg.BatchDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(a.cfg.BatchDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *AI) fillRemaining(results []*FileResult, from int, files []graph.FileRecord, sources [][]byte, reason string) {
	for i := from; i < len(files); i++ {
		if results[i] != nil {
			continue
		}
		language := files[i].Language
		if language == "" {
			language = DetectLanguage(files[i].RelativePath)
		}
		results[i] = a.fallbackResult(files[i], language, sources[i], reason)
	}
}

// buildPrompt produces the fixed-shape analysis prompt with the JSON
// response schema enumerated so the tool answers in a parseable form.
func (a *AI) buildPrompt(file graph.FileRecord, language string, source []byte) string {
	content := source
	truncated := false
	if len(content) > a.cfg.MaxPromptBytes {
		content = content[:a.cfg.MaxPromptBytes]
		truncated = true
	}

	var sb strings.Builder
	sb.WriteString("Analyze the following source file and extract its code structure.\n\n")
	fmt.Fprintf(&sb, "File: %s\n", file.RelativePath)
	fmt.Fprintf(&sb, "Language: %s\n", language)
	fmt.Fprintf(&sb, "Size: %d bytes\n\n", file.Size)
	sb.WriteString("Respond with exactly one JSON object in this shape:\n")
	sb.WriteString(`{
  "entities": [{"name": "...", "type": "module|class|function|method|variable|interface|type", "startLine": 1, "endLine": 1, "signature": "...", "modifiers": ["..."]}],
  "relationships": [{"sourceEntity": "...", "targetEntity": "...", "relationshipType": "IMPORTS|EXTENDS|IMPLEMENTS|CALLS|DEFINES|USES|CONTAINS", "lineNumber": 1, "confidence": 0.9}],
  "summary": "one sentence",
  "confidence": 0.9
}`)
	sb.WriteString("\n\nSource:\n")
	sb.Write(content)
	if truncated {
		sb.WriteString("\n[truncated]")
	}
	return sb.String()
}

// parseResponse extracts the first balanced {...} block and decodes it
// strictly. Returns nil when no valid JSON object is present.
func (a *AI) parseResponse(output string, file graph.FileRecord, language string, source []byte) *FileResult {
	block := firstJSONObject(output)
	if block == "" {
		return nil
	}

	var resp aiResponse
	if err := json.Unmarshal([]byte(block), &resp); err != nil {
		return nil
	}
	if len(resp.Entities) == 0 {
		return nil
	}

	confidence := resp.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = defaultResponseConfidence
	}

	result := &FileResult{
		File:          file,
		Strategy:      graph.StrategyAI,
		Entities:      []graph.CodeEntity{},
		Relationships: []graph.SemanticRelationship{},
	}
	for _, ent := range resp.Entities {
		if ent.Name == "" {
			continue
		}
		kind := entityKindFrom(ent.Type)
		start := ent.StartLine
		if start <= 0 {
			start = 1
		}
		end := ent.EndLine
		if end < start {
			end = start
		}
		result.Entities = append(result.Entities, graph.CodeEntity{
			ID:        graph.EntityID(file.RelativePath, kind, ent.Name, start),
			Name:      ent.Name,
			Kind:      kind,
			File:      file.RelativePath,
			StartLine: start,
			EndLine:   end,
			Signature: ent.Signature,
			Modifiers: ent.Modifiers,
			Meta: graph.EntityMeta{
				Language:   language,
				Confidence: confidence,
				Strategy:   graph.StrategyAI,
			},
		})
	}
	if len(result.Entities) == 0 {
		return nil
	}

	for _, rel := range resp.Relationships {
		if rel.SourceEntity == "" || rel.TargetEntity == "" {
			continue
		}
		kind, ok := relationshipKindFrom(rel.RelationshipType)
		if !ok {
			continue
		}
		relConfidence := rel.Confidence
		if relConfidence <= 0 || relConfidence > 1 {
			relConfidence = confidence
		}
		result.Relationships = append(result.Relationships, graph.SemanticRelationship{
			ID:           graph.RelationshipID(file.RelativePath, rel.SourceEntity, rel.TargetEntity, kind, rel.LineNumber),
			SourceFile:   file.RelativePath,
			SourceEntity: rel.SourceEntity,
			TargetEntity: rel.TargetEntity,
			Kind:         kind,
			Confidence:   relConfidence,
			Line:         rel.LineNumber,
			Meta: graph.RelationshipMeta{
				Language: language,
				Strategy: graph.StrategyAI,
			},
		})
	}
	return result
}

var (
	recoverClassRe = regexp.MustCompile(`(?m)\bclass\s+([A-Za-z_][A-Za-z0-9_]*)`)
	recoverFuncRe  = regexp.MustCompile(`(?m)\b(?:function|func|fn|def)\s+([A-Za-z_][A-Za-z0-9_]*)`)
)

// recoverFromText applies the constrained regex recovery pass: only class
// and function name mentions survive, as low-confidence entities. Returns
// nil when nothing recoverable is found.
func (a *AI) recoverFromText(output string, file graph.FileRecord, language string, source []byte) *FileResult {
	type recovered struct {
		name string
		kind graph.EntityKind
	}
	var found []recovered
	seen := make(map[string]bool)
	for _, m := range recoverClassRe.FindAllStringSubmatch(output, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			found = append(found, recovered{name: m[1], kind: graph.EntityClass})
		}
	}
	for _, m := range recoverFuncRe.FindAllStringSubmatch(output, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			found = append(found, recovered{name: m[1], kind: graph.EntityFunction})
		}
	}
	if len(found) == 0 {
		return nil
	}

	result := &FileResult{
		File:          file,
		Strategy:      graph.StrategyAI,
		Entities:      []graph.CodeEntity{},
		Relationships: []graph.SemanticRelationship{},
	}
	for _, r := range found {
		result.Entities = append(result.Entities, graph.CodeEntity{
			ID:        graph.EntityID(file.RelativePath, r.kind, r.name, 1),
			Name:      r.name,
			Kind:      r.kind,
			File:      file.RelativePath,
			StartLine: 1,
			EndLine:   1,
			Meta: graph.EntityMeta{
				Language:   language,
				Confidence: recoveredConfidence,
				Strategy:   graph.StrategyAI,
				Reason:     "recovered from non-JSON response",
			},
		})
	}
	return result
}

// fallbackResult is the correctness floor mirroring the generic tier, with
// the failure reason recorded for the quality metrics.
func (a *AI) fallbackResult(file graph.FileRecord, language string, source []byte, reason string) *FileResult {
	return &FileResult{
		File:     file,
		Strategy: graph.StrategyAI,
		Entities: []graph.CodeEntity{
			moduleEntity(file, language, countLines(source), genericConfidence, graph.StrategyAI, reason),
		},
		Relationships: []graph.SemanticRelationship{},
	}
}

const maxStderrSnippet = 200

// stderrSnippet condenses tool stderr into a single bounded line for the
// degraded entity's reason.
func stderrSnippet(stderr string) string {
	s := strings.Join(strings.Fields(stderr), " ")
	if len(s) > maxStderrSnippet {
		s = s[:maxStderrSnippet] + "..."
	}
	return s
}

// firstJSONObject returns the first balanced top-level {...} block,
// respecting string literals and escapes.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}

func entityKindFrom(s string) graph.EntityKind {
	switch strings.ToLower(s) {
	case "class":
		return graph.EntityClass
	case "function":
		return graph.EntityFunction
	case "method":
		return graph.EntityMethod
	case "variable", "constant":
		return graph.EntityVariable
	case "interface":
		return graph.EntityInterface
	case "type", "enum":
		return graph.EntityType
	default:
		return graph.EntityModule
	}
}

func relationshipKindFrom(s string) (graph.RelationshipKind, bool) {
	switch strings.ToUpper(s) {
	case "IMPORTS":
		return graph.RelImports, true
	case "EXTENDS":
		return graph.RelExtends, true
	case "IMPLEMENTS":
		return graph.RelImplements, true
	case "CALLS":
		return graph.RelCalls, true
	case "DEFINES":
		return graph.RelDefines, true
	case "USES":
		return graph.RelUses, true
	case "CONTAINS":
		return graph.RelContains, true
	default:
		return "", false
	}
}
