// Package search provides full-text lookup over extracted code entities,
// backed by an in-memory bleve index.
package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"semgraph/internal/graph"
)

// EntitySearcher defines the interface for keyword search over code entities.
type EntitySearcher interface {
	// Search executes a keyword search using bleve query syntax. Options
	// may be nil (defaults apply).
	Search(ctx context.Context, queryStr string, options *Options) ([]*Result, error)

	// Update applies incremental index changes in one batch.
	Update(ctx context.Context, added, updated []graph.CodeEntity, deleted []string) error

	// Close releases resources held by the searcher.
	Close() error
}

// Options narrows a search.
type Options struct {
	Limit    int    // Max results; clamped to [1, 100], default 15
	Kind     string // Entity kind filter (function, class, ...)
	FilePath string // Wildcard path filter, e.g. "src/auth/*"
}

// DefaultOptions returns the baseline search options.
func DefaultOptions() *Options {
	return &Options{Limit: 15}
}

// Result is one keyword search hit.
type Result struct {
	Entity     graph.CodeEntity `json:"entity"`
	Score      float64          `json:"score"`
	Highlights []string         `json:"highlights,omitempty"`
}

type entitySearcher struct {
	index bleve.Index
	mu    sync.RWMutex // Protects index during updates
}

// NewEntitySearcher builds an in-memory index over all entities in data.
func NewEntitySearcher(ctx context.Context, data *graph.SemanticGraphData) (EntitySearcher, error) {
	index, err := bleve.NewMemOnly(buildEntityMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	if data != nil {
		if err := indexEntities(ctx, index, data.Entities); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to index entities: %w", err)
		}
	}

	return &entitySearcher{index: index}, nil
}

// buildEntityMapping creates the index mapping for entity documents.
// Name and signature use the standard analyzer for partial matching; kind
// and language use the keyword analyzer for exact filtering.
func buildEntityMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	nameMapping := bleve.NewTextFieldMapping()
	nameMapping.Analyzer = "standard"
	nameMapping.Store = true
	nameMapping.Index = true
	nameMapping.IncludeTermVectors = true

	signatureMapping := bleve.NewTextFieldMapping()
	signatureMapping.Analyzer = "standard"
	signatureMapping.Store = true
	signatureMapping.Index = true
	signatureMapping.IncludeTermVectors = true

	kindMapping := bleve.NewTextFieldMapping()
	kindMapping.Analyzer = "keyword"
	kindMapping.Store = true
	kindMapping.Index = true

	languageMapping := bleve.NewTextFieldMapping()
	languageMapping.Analyzer = "keyword"
	languageMapping.Store = true
	languageMapping.Index = true

	filePathMapping := bleve.NewTextFieldMapping()
	filePathMapping.Analyzer = "standard"
	filePathMapping.Store = true
	filePathMapping.Index = true

	idMapping := bleve.NewTextFieldMapping()
	idMapping.Analyzer = "keyword"
	idMapping.Store = true
	idMapping.Index = false

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("id", idMapping)
	docMapping.AddFieldMappingsAt("name", nameMapping)
	docMapping.AddFieldMappingsAt("signature", signatureMapping)
	docMapping.AddFieldMappingsAt("kind", kindMapping)
	docMapping.AddFieldMappingsAt("language", languageMapping)
	docMapping.AddFieldMappingsAt("file_path", filePathMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func indexEntities(ctx context.Context, index bleve.Index, entities []graph.CodeEntity) error {
	const batchSize = 1000

	batch := index.NewBatch()
	for i, entity := range entities {
		if i%batchSize == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}

		if err := batch.Index(entity.ID, entityToDocument(entity)); err != nil {
			return fmt.Errorf("failed to add entity %s to batch: %w", entity.ID, err)
		}

		if batch.Size() >= batchSize {
			if err := index.Batch(batch); err != nil {
				return fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			return fmt.Errorf("failed to execute final batch: %w", err)
		}
	}

	return nil
}

func entityToDocument(entity graph.CodeEntity) map[string]interface{} {
	return map[string]interface{}{
		"id":         entity.ID,
		"name":       entity.Name,
		"signature":  entity.Signature,
		"kind":       string(entity.Kind),
		"language":   entity.Meta.Language,
		"file_path":  entity.File,
		"start_line": entity.StartLine,
		"end_line":   entity.EndLine,
		"confidence": entity.Meta.Confidence,
	}
}

// Search executes a keyword search with optional kind and path filters.
func (s *entitySearcher) Search(ctx context.Context, queryStr string, options *Options) ([]*Result, error) {
	if options == nil {
		options = DefaultOptions()
	}

	limit := options.Limit
	if limit <= 0 || limit > 100 {
		limit = 15
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var queries []query.Query
	queries = append(queries, bleve.NewQueryStringQuery(queryStr))

	if options.Kind != "" {
		kindQuery := bleve.NewMatchQuery(options.Kind)
		kindQuery.SetField("kind")
		queries = append(queries, kindQuery)
	}

	if options.FilePath != "" {
		pathQuery := bleve.NewWildcardQuery(options.FilePath)
		pathQuery.SetField("file_path")
		queries = append(queries, pathQuery)
	}

	var finalQuery query.Query
	if len(queries) == 1 {
		finalQuery = queries[0]
	} else {
		finalQuery = bleve.NewConjunctionQuery(queries...)
	}

	searchRequest := bleve.NewSearchRequestOptions(finalQuery, limit, 0, false)
	highlightStyle := "html"
	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.Style = &highlightStyle
	searchRequest.Highlight.Fields = []string{"name", "signature"}
	searchRequest.Fields = []string{"id", "name", "signature", "kind", "language", "file_path", "start_line", "end_line", "confidence"}

	searchResult, err := s.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	results := make([]*Result, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		entity := graph.CodeEntity{
			ID:        stringField(hit.Fields, "id"),
			Name:      stringField(hit.Fields, "name"),
			Signature: stringField(hit.Fields, "signature"),
			Kind:      graph.EntityKind(stringField(hit.Fields, "kind")),
			File:      stringField(hit.Fields, "file_path"),
			StartLine: intField(hit.Fields, "start_line"),
			EndLine:   intField(hit.Fields, "end_line"),
		}
		entity.Meta.Language = stringField(hit.Fields, "language")
		if conf, ok := hit.Fields["confidence"].(float64); ok {
			entity.Meta.Confidence = conf
		}

		results = append(results, &Result{
			Entity:     entity,
			Score:      hit.Score,
			Highlights: extractHighlights(hit.Fragments),
		})
	}

	return results, nil
}

func stringField(fields map[string]interface{}, name string) string {
	value, _ := fields[name].(string)
	return value
}

func intField(fields map[string]interface{}, name string) int {
	// Bleve returns stored numeric fields as float64
	if value, ok := fields[name].(float64); ok {
		return int(value)
	}
	return 0
}

// extractHighlights flattens bleve fragments, capped at 3 per hit.
func extractHighlights(fragments map[string][]string) []string {
	var highlights []string
	for _, snippets := range fragments {
		highlights = append(highlights, snippets...)
	}
	if len(highlights) > 3 {
		highlights = highlights[:3]
	}
	return highlights
}

// Update applies incremental changes to the index in one batch.
func (s *entitySearcher) Update(ctx context.Context, added, updated []graph.CodeEntity, deleted []string) error {
	batch := s.index.NewBatch()

	for _, id := range deleted {
		batch.Delete(id)
	}
	for _, entity := range append(added, updated...) {
		if err := batch.Index(entity.ID, entityToDocument(entity)); err != nil {
			return fmt.Errorf("failed to index entity %s: %w", entity.ID, err)
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to apply index batch: %w", err)
	}
	return nil
}

// Close releases the underlying index.
func (s *entitySearcher) Close() error {
	return s.index.Close()
}
