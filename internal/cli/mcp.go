package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"semgraph/internal/mcp"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for graph queries",
	Long: `Start the Model Context Protocol (MCP) server that lets LLM-powered coding
assistants query the built semantic graph.

The MCP server:
- Loads the graph built by 'semgraph analyze'
- Exposes entity search, dependency tree navigation, cycle and cluster tools
- Communicates via stdio (standard MCP transport)

Example:
  semgraph mcp`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	result, err := loadResult()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "semgraph MCP server (%d nodes, %d edges)\n",
		result.Metadata.NodeCount, result.Metadata.EdgeCount)

	server, err := mcp.NewServer(ctx, result)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	defer server.Close()

	return server.Serve(ctx)
}
