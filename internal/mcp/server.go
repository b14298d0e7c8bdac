package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"semgraph/internal/graph"
	"semgraph/internal/search"
)

// Server exposes the built semantic graph to MCP clients over stdio. All
// tools are read-only: the graph is loaded once and never mutated here.
type Server struct {
	searcher graph.Searcher
	entities search.EntitySearcher
	mcp      *server.MCPServer
}

// NewServer loads the graph result into a query server and registers the
// tool set.
func NewServer(ctx context.Context, result *graph.IntegratedResult) (*Server, error) {
	if result == nil {
		return nil, fmt.Errorf("graph result is required")
	}

	searcher, err := graph.NewSearcher(result)
	if err != nil {
		return nil, fmt.Errorf("failed to create graph searcher: %w", err)
	}

	entities, err := search.NewEntitySearcher(ctx, &result.Graph)
	if err != nil {
		return nil, fmt.Errorf("failed to create entity searcher: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"semgraph",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	AddSearchTool(mcpServer, entities)
	AddTreeTool(mcpServer, searcher)
	AddCyclesTool(mcpServer, searcher)
	AddClustersTool(mcpServer, searcher)

	return &Server{
		searcher: searcher,
		entities: entities,
		mcp:      mcpServer,
	}, nil
}

// Serve runs the server on stdio until a shutdown signal or error.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases all resources.
func (s *Server) Close() error {
	if s.entities != nil {
		return s.entities.Close()
	}
	return nil
}
