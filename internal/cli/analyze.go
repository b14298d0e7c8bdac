package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"semgraph/internal/analyzer"
	"semgraph/internal/config"
	"semgraph/internal/graph"
	"semgraph/internal/scan"
	"semgraph/internal/storage"
	"semgraph/internal/watch"
)

var (
	quietFlag bool
	watchFlag bool
	dbFlag    string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Build the semantic graph for the current directory",
	Long: `Analyze walks the configured source tree, extracts entities and
relationships from every file, and builds the dependency graph.

The pipeline:
  - Classifies each file into an extraction tier
  - Parses natively supported languages with language grammars
  - Falls back to an external analysis tool for complex files
  - Resolves cross-file imports into a dependency tree
  - Detects circular dependencies and module clusters

Examples:
  # Analyze the current directory
  semgraph analyze

  # Analyze without progress output
  semgraph analyze --quiet

  # Keep watching for changes and rebuild incrementally
  semgraph analyze --watch

  # Also persist the graph to a SQLite database
  semgraph analyze --db .semgraph/graph.db
`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	analyzeCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for file changes and rebuild")
	analyzeCmd.Flags().StringVar(&dbFlag, "db", "", "Also write the graph to a SQLite database at this path")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nInterrupted! Cancelling analysis...")
		cancel()
	}()

	rootDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// One engine serves every rebuild, so the extraction cache carries
	// over between watch passes.
	engine, err := analyzer.NewEngine(
		cfg.ToEngineConfig(rootDir),
		analyzer.WithProgress(NewCLIProgressReporter(quietFlag)),
	)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer engine.Close()

	if err := buildOnce(ctx, engine, rootDir, cfg); err != nil {
		return err
	}

	if !watchFlag {
		return nil
	}
	return watchAndRebuild(ctx, engine, rootDir, cfg)
}

// buildOnce runs one full pipeline pass and persists the result.
func buildOnce(ctx context.Context, engine *analyzer.Engine, rootDir string, cfg *config.Config) error {
	discovery, err := scan.NewFileDiscovery(rootDir, cfg.Paths.Include, cfg.Paths.Ignore)
	if err != nil {
		return fmt.Errorf("failed to create file discovery: %w", err)
	}
	files, err := discovery.Discover()
	if err != nil {
		return fmt.Errorf("file discovery failed: %w", err)
	}
	if len(files) == 0 {
		log.Printf("No source files matched the configured patterns")
	}

	result, err := engine.BuildGraphFromFiles(ctx, files)
	if err != nil {
		return fmt.Errorf("graph build failed: %w", err)
	}

	graphDir := filepath.Join(rootDir, cfg.Storage.Dir)
	store, err := graph.NewStorage(graphDir)
	if err != nil {
		return fmt.Errorf("failed to initialize graph storage: %w", err)
	}
	if err := store.Save(result); err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}

	if dbFlag != "" {
		if err := writeDatabase(dbFlag, result); err != nil {
			return err
		}
	}

	if !quietFlag {
		printSummary(result)
	}
	return nil
}

func writeDatabase(dbPath string, result *graph.IntegratedResult) error {
	db, err := storage.NewGraphStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open graph database: %w", err)
	}
	defer db.Close()

	if err := storage.WriteResult(db, result); err != nil {
		return fmt.Errorf("failed to write graph database: %w", err)
	}
	return nil
}

// watchAndRebuild reruns the full pipeline after each debounced change
// batch until the context is cancelled.
func watchAndRebuild(ctx context.Context, engine *analyzer.Engine, rootDir string, cfg *config.Config) error {
	extensions := []string{".go", ".ts", ".tsx", ".js", ".jsx", ".py", ".java", ".rs", ".rb", ".php", ".c", ".cpp", ".cs", ".kt", ".swift"}
	watcher, err := watch.New([]string{rootDir}, extensions)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	rebuilds := make(chan []string, 1)
	if err := watcher.Start(ctx, func(files []string) {
		select {
		case rebuilds <- files:
		default: // A rebuild is already queued
		}
	}); err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	log.Printf("Watching for changes (Ctrl+C to stop)...")
	for {
		select {
		case <-ctx.Done():
			return nil
		case files := <-rebuilds:
			log.Printf("%d files changed, rebuilding...", len(files))
			if err := buildOnce(ctx, engine, rootDir, cfg); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Printf("Rebuild failed: %v", err)
			}
		}
	}
}

func printSummary(result *graph.IntegratedResult) {
	stats := result.Graph.Stats
	fmt.Printf("\nFiles:         %d\n", stats.TotalFiles)
	fmt.Printf("Entities:      %d\n", stats.TotalEntities)
	fmt.Printf("Relationships: %d\n", stats.TotalRelationships)
	fmt.Printf("Strategies:    native=%d ai=%d generic=%d\n",
		stats.Strategy.Native, stats.Strategy.AI, stats.Strategy.Generic)
	fmt.Printf("Confidence:    %.2f average, %d high-confidence entities\n",
		stats.Quality.AverageConfidence, stats.Quality.HighConfidenceEntities)
	fmt.Printf("Cycles:        %d\n", len(result.Cycles))
	fmt.Printf("Clusters:      %d\n", len(result.Clusters))
}
