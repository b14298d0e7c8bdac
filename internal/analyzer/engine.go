package analyzer

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"semgraph/internal/cache"
	"semgraph/internal/extract"
	"semgraph/internal/graph"
)

// ErrNoExtractors is returned when construction starts with no extraction
// tier registered at all. Invalid configuration is fatal before any work.
var ErrNoExtractors = errors.New("no extractors registered")

// ProgressReporter reports progress during graph building.
type ProgressReporter interface {
	OnBuildStart(totalFiles int)
	OnFileProcessed(processed, total int, fileName string)
	OnBuildComplete(nodeCount, edgeCount int, duration time.Duration)
}

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	// RootDir anchors relative paths when file records carry no absolute
	// path.
	RootDir string
	// Workers bounds the native/generic extraction pool.
	Workers int
	// CacheCapacity bounds the per-file result cache. 0 uses the cache
	// default.
	CacheCapacity int
	// HighConfidence is the quality-metric cutoff.
	HighConfidence float64
	// Classifier, AI, Resolver, Cycles, and Clusters pass through to the
	// respective components.
	Classifier extract.ClassifierConfig
	AI         extract.AIConfig
	AIDisabled bool
	Resolver   graph.ResolverConfig
	Cycles     graph.CycleConfig
	Clusters   graph.ClusterConfig
}

// Engine is the graph construction pipeline. It owns the three extraction
// tiers and the analysis passes; one Engine may serve many builds.
type Engine struct {
	cfg        Config
	classifier *extract.Classifier
	native     *extract.Native
	ai         *extract.AI
	generic    *extract.Generic
	progress   ProgressReporter
	fileCache  *cache.ExtractionCache

	// readFile is swappable for tests.
	readFile func(string) ([]byte, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithProgress configures progress reporting.
func WithProgress(progress ProgressReporter) Option {
	return func(e *Engine) { e.progress = progress }
}

// WithRunner substitutes the external tool runner, for tests. It never
// re-enables a disabled analysis tier.
func WithRunner(runner extract.ExecRunner) Option {
	return func(e *Engine) {
		if e.cfg.AIDisabled {
			return
		}
		e.ai = extract.NewAI(e.cfg.AI, runner)
	}
}

// WithFileReader substitutes source loading, for tests.
func WithFileReader(readFile func(string) ([]byte, error)) Option {
	return func(e *Engine) { e.readFile = readFile }
}

// NewEngine builds an engine from config.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	fileCache, err := cache.New(cfg.CacheCapacity)
	if err != nil {
		return nil, err
	}

	native := extract.NewNative()
	e := &Engine{
		cfg:        cfg,
		classifier: extract.NewClassifier(cfg.Classifier, native.Languages()),
		native:     native,
		generic:    extract.NewGeneric(),
		fileCache:  fileCache,
		readFile:   os.ReadFile,
	}
	if !cfg.AIDisabled {
		e.ai = extract.NewAI(cfg.AI, nil)
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.native == nil && e.ai == nil && e.generic == nil {
		return nil, ErrNoExtractors
	}
	return e, nil
}

// Close releases the engine's cached state. The engine must not be used
// afterwards.
func (e *Engine) Close() {
	e.fileCache.Close()
}

// tierSets is the classifier's partition of the input file list.
type tierSets struct {
	native  []graph.FileRecord
	ai      []graph.FileRecord
	generic []graph.FileRecord
}

// BuildGraphFromFiles runs the full pipeline over the discovered files and
// returns the integrated result. Per-file failures degrade to lower tiers;
// only pre-flight configuration problems and cancellation return errors.
func (e *Engine) BuildGraphFromFiles(ctx context.Context, files []graph.FileRecord) (*graph.IntegratedResult, error) {
	startTime := time.Now()

	if e.progress != nil {
		e.progress.OnBuildStart(len(files))
	}

	tiers := e.classify(files)

	// The two independent tiers run concurrently per file; failures
	// reroute to the analysis tier, which then runs its rate-limited
	// batches. Extraction must fully settle before any analysis pass.
	nativeResults, rerouted := e.runNative(ctx, tiers.native)
	genericResults := e.runGeneric(ctx, tiers.generic)

	aiFiles := append(append([]graph.FileRecord{}, tiers.ai...), rerouted...)
	aiResults := e.runAI(ctx, aiFiles)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data := Merge(nativeResults, aiResults, genericResults, e.cfg.HighConfidence)

	tree := graph.NewTree(files, data)
	graph.NewResolver(e.cfg.Resolver).Resolve(tree, data)
	tree.Link()
	tree.SelectRoot()
	tree.Enrich(data)

	// Imports edges got concrete targets during resolution; reflect the
	// resolved file on the originating relationships for the quality
	// metrics.
	fillTargetFiles(data, tree)
	data.Stats.Quality.CrossFileRelationships = countCrossFile(data)

	cycles := graph.NewCycleDetector(e.cfg.Cycles).Detect(tree)
	clusters := graph.NewClusterAnalyzer(e.cfg.Clusters).Analyze(tree)

	threshold := e.cfg.Clusters.SimilarityThreshold
	if threshold <= 0 {
		threshold = graph.DefaultClusterConfig().SimilarityThreshold
	}
	tree.ComputeSimilarity(threshold)

	duration := time.Since(startTime)
	if e.progress != nil {
		e.progress.OnBuildComplete(len(tree.Nodes), len(tree.Edges), duration)
	}

	return &graph.IntegratedResult{
		Metadata: graph.ResultMetadata{
			AnalysisID: uuid.NewString(),
			RootDir:    e.cfg.RootDir,
			DurationMS: duration.Milliseconds(),
		},
		Graph:    *data,
		Tree:     tree,
		Cycles:   cycles,
		Clusters: clusters,
	}, nil
}

func (e *Engine) classify(files []graph.FileRecord) tierSets {
	var tiers tierSets
	for _, f := range files {
		if f.Type != "" && f.Type != "file" {
			continue
		}
		c := e.classifier.Classify(f)
		tier := c.Tier
		if tier == extract.TierAI && e.ai == nil {
			tier = extract.TierGeneric
		}
		switch tier {
		case extract.TierNative:
			tiers.native = append(tiers.native, f)
		case extract.TierAI:
			tiers.ai = append(tiers.ai, f)
		default:
			if c.Reason == "exceeds size ceiling" {
				log.Printf("Routing %s to generic extraction: %s", f.RelativePath, c.Reason)
			}
			tiers.generic = append(tiers.generic, f)
		}
	}
	return tiers
}

// runNative extracts files through the native tier with a bounded worker
// pool. Results flow back over a channel to a single collecting loop, so
// the accumulating slices have one writer. Parse failures come back as the
// rerouted list for the analysis tier.
func (e *Engine) runNative(ctx context.Context, files []graph.FileRecord) ([]*extract.FileResult, []graph.FileRecord) {
	if len(files) == 0 {
		return nil, nil
	}

	type outcome struct {
		result   *extract.FileResult
		rerouted *graph.FileRecord
	}
	outcomes := make(chan outcome, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for _, f := range files {
		// Cancellation stops scheduling new work; in-flight parses finish.
		if gctx.Err() != nil {
			break
		}
		f := f
		g.Go(func() error {
			source, err := e.readFile(e.absPath(f))
			if err != nil {
				log.Printf("Warning: failed to read %s: %v", f.RelativePath, err)
				outcomes <- outcome{rerouted: &f}
				return nil
			}
			key := cache.Key(f.RelativePath, source)
			if cached, ok := e.fileCache.Get(key); ok && cached.Strategy == graph.StrategyNative {
				outcomes <- outcome{result: cached}
				return nil
			}
			result, err := e.native.Extract(gctx, f, source)
			if err != nil {
				// Recoverable: the analysis tier gets another shot.
				log.Printf("Warning: native extraction failed for %s: %v", f.RelativePath, err)
				outcomes <- outcome{rerouted: &f}
				return nil
			}
			e.fileCache.Put(key, result)
			outcomes <- outcome{result: result}
			return nil
		})
	}
	go func() {
		g.Wait()
		close(outcomes)
	}()

	var results []*extract.FileResult
	var rerouted []graph.FileRecord
	processed := 0
	for o := range outcomes {
		processed++
		if o.result != nil {
			results = append(results, o.result)
			e.reportFile(processed, len(files), o.result.File.RelativePath)
		} else if o.rerouted != nil {
			rerouted = append(rerouted, *o.rerouted)
			e.reportFile(processed, len(files), o.rerouted.RelativePath)
		}
	}
	return results, rerouted
}

func (e *Engine) runGeneric(ctx context.Context, files []graph.FileRecord) []*extract.FileResult {
	var results []*extract.FileResult
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		source, err := e.readFile(e.absPath(f))
		if err != nil {
			source = nil
		}
		result, _ := e.generic.Extract(ctx, f, source)
		results = append(results, result)
	}
	return results
}

func (e *Engine) runAI(ctx context.Context, files []graph.FileRecord) []*extract.FileResult {
	if len(files) == 0 {
		return nil
	}
	if e.ai == nil {
		// Analysis tier disabled after classification: floor to generic.
		return e.runGeneric(ctx, files)
	}

	results := make([]*extract.FileResult, len(files))
	keys := make([]string, len(files))
	var missFiles []graph.FileRecord
	var missSources [][]byte
	var missIndexes []int

	for i, f := range files {
		source, err := e.readFile(e.absPath(f))
		if err != nil {
			log.Printf("Warning: failed to read %s: %v", f.RelativePath, err)
		}
		keys[i] = cache.Key(f.RelativePath, source)
		if cached, ok := e.fileCache.Get(keys[i]); ok && cached.Strategy == graph.StrategyAI {
			results[i] = cached
			continue
		}
		missFiles = append(missFiles, f)
		missSources = append(missSources, source)
		missIndexes = append(missIndexes, i)
	}

	for j, result := range e.ai.ExtractBatch(ctx, missFiles, missSources) {
		i := missIndexes[j]
		results[i] = result
		if cacheableResult(result) {
			e.fileCache.Put(keys[i], result)
		}
	}
	return results
}

// cacheableResult reports whether an analysis-tier result is worth
// caching. Degraded results carry a reason; a later run may do better, so
// they are never cached.
func cacheableResult(result *extract.FileResult) bool {
	if result == nil || len(result.Entities) == 0 {
		return false
	}
	for _, ent := range result.Entities {
		if ent.Meta.Reason != "" {
			return false
		}
	}
	return true
}

func (e *Engine) absPath(f graph.FileRecord) string {
	if f.Path != "" {
		return f.Path
	}
	return filepath.Join(e.cfg.RootDir, filepath.FromSlash(f.RelativePath))
}

func (e *Engine) reportFile(processed, total int, name string) {
	if e.progress != nil {
		e.progress.OnFileProcessed(processed, total, filepath.Base(name))
	}
}

// fillTargetFiles writes resolved target files back onto the import
// relationships using the edge set.
func fillTargetFiles(data *graph.SemanticGraphData, tree *graph.DependencyTree) {
	targetsOf := make(map[string][]string)
	for _, edge := range tree.Edges {
		if edge.External {
			continue
		}
		if to := tree.Node(edge.To); to != nil {
			targetsOf[edge.From] = append(targetsOf[edge.From], to.Path)
		}
	}

	for i := range data.Relationships {
		rel := &data.Relationships[i]
		if rel.Kind != graph.RelImports || rel.TargetFile != "" {
			continue
		}
		fromID := graph.NodeID(rel.SourceFile)
		for _, targetPath := range targetsOf[fromID] {
			if importMatchesFile(rel.TargetEntity, targetPath) {
				rel.TargetFile = targetPath
				break
			}
		}
	}
}

// importMatchesFile reports whether an import specifier plausibly refers
// to the resolved file path.
func importMatchesFile(specifier, filePath string) bool {
	base := filepath.Base(filePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	var specBase string
	if strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") {
		// Path specifier: compare base names, extension optional.
		specBase = filepath.Base(filepath.FromSlash(specifier))
		specBase = strings.TrimSuffix(specBase, filepath.Ext(specBase))
	} else {
		// Module specifier: the last dotted or slashed segment names the
		// target module.
		specBase = specifier
		if i := strings.LastIndexAny(specBase, "./"); i >= 0 {
			specBase = specBase[i+1:]
		}
	}
	return specBase == stem || specBase == base ||
		(stem == "index" || stem == "__init__" || stem == "mod")
}

func countCrossFile(data *graph.SemanticGraphData) int {
	count := 0
	for _, rel := range data.Relationships {
		if rel.TargetFile != "" && rel.TargetFile != rel.SourceFile {
			count++
		}
	}
	return count
}
