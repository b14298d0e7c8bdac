package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"semgraph/internal/config"
	"semgraph/internal/graph"
	"semgraph/internal/search"
)

var (
	jsonFlag       bool
	clusterKind    string
	searchKind     string
	searchPath     string
	searchLimit    int
	treeToFlag     string
	treeParentsTop bool
)

// loadResult loads the previously built graph from the configured
// storage directory.
func loadResult() (*graph.IntegratedResult, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	store, err := graph.NewStorage(filepath.Join(rootDir, cfg.Storage.Dir))
	if err != nil {
		return nil, err
	}
	result, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("no graph found; run 'semgraph analyze' first")
	}
	return result, nil
}

func printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// cyclesCmd lists detected circular dependencies.
var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "List detected circular dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := loadResult()
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(result.Cycles)
		}
		if len(result.Cycles) == 0 {
			fmt.Println("No circular dependencies detected")
			return nil
		}
		for _, cycle := range result.Cycles {
			fmt.Printf("[%s] %s\n", cycle.Severity, cycle.Description)
			for _, file := range cycle.Path {
				fmt.Printf("  %s\n", file)
			}
			for _, suggestion := range cycle.Suggestions {
				fmt.Printf("  Suggestion: %s\n", suggestion)
			}
		}
		return nil
	},
}

// clustersCmd lists module clusters.
var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "List module clusters with cohesion and coupling scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := loadResult()
		if err != nil {
			return err
		}
		searcher, err := graph.NewSearcher(result)
		if err != nil {
			return err
		}
		clusters := searcher.Clusters(graph.ClusterKind(clusterKind))
		if jsonFlag {
			return printJSON(clusters)
		}
		for _, cluster := range clusters {
			fmt.Printf("%s (%d files, cohesion %.2f, coupling %.2f)\n",
				cluster.ID, len(cluster.Members), cluster.Cohesion, cluster.Coupling)
		}
		return nil
	},
}

// treeCmd navigates the dependency tree.
var treeCmd = &cobra.Command{
	Use:   "tree [node-id]",
	Short: "Show dependency tree relationships for a file",
	Long: `Tree shows the dependency neighborhood of a file node. Without flags it
lists the node's direct dependencies; --parents lists its dependents, and
--to prints the shortest dependency path to another node.

Node ids are normalized relative paths, e.g. 'src/auth/login.ts'.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := loadResult()
		if err != nil {
			return err
		}
		searcher, err := graph.NewSearcher(result)
		if err != nil {
			return err
		}

		nodeID := args[0]
		if treeToFlag != "" {
			path, err := searcher.PathBetween(nodeID, treeToFlag)
			if err != nil {
				return err
			}
			if jsonFlag {
				return printJSON(path)
			}
			for i, id := range path {
				fmt.Printf("%*s%s\n", i*2, "", id)
			}
			return nil
		}

		var nodes []*graph.TreeNode
		if treeParentsTop {
			nodes, err = searcher.Parents(nodeID)
		} else {
			nodes, err = searcher.Children(nodeID)
		}
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(nodes)
		}
		for _, node := range nodes {
			fmt.Printf("%s (%s, complexity %d)\n", node.ID, node.Language, node.Complexity)
		}
		return nil
	},
}

// searchCmd runs a full-text entity search over the built graph.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search extracted code entities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := loadResult()
		if err != nil {
			return err
		}

		ctx := context.Background()
		entities, err := search.NewEntitySearcher(ctx, &result.Graph)
		if err != nil {
			return err
		}
		defer entities.Close()

		options := &search.Options{
			Limit:    searchLimit,
			Kind:     searchKind,
			FilePath: searchPath,
		}
		hits, err := entities.Search(ctx, args[0], options)
		if err != nil {
			return err
		}
		if jsonFlag {
			return printJSON(hits)
		}
		for _, hit := range hits {
			fmt.Printf("%-10s %s  %s:%d (%.2f)\n",
				hit.Entity.Kind, hit.Entity.Name, hit.Entity.File, hit.Entity.StartLine, hit.Score)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(clustersCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(searchCmd)

	for _, cmd := range []*cobra.Command{cyclesCmd, clustersCmd, treeCmd, searchCmd} {
		cmd.Flags().BoolVar(&jsonFlag, "json", false, "Output as JSON")
	}
	clustersCmd.Flags().StringVar(&clusterKind, "kind", "", "Filter by cluster kind: directory, domain, or role")
	treeCmd.Flags().BoolVar(&treeParentsTop, "parents", false, "Show dependents instead of dependencies")
	treeCmd.Flags().StringVar(&treeToFlag, "to", "", "Show the shortest dependency path to this node")
	searchCmd.Flags().StringVar(&searchKind, "kind", "", "Filter by entity kind")
	searchCmd.Flags().StringVar(&searchPath, "path", "", "Wildcard file path filter")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 15, "Maximum results")
}
