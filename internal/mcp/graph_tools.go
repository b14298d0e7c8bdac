package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"semgraph/internal/graph"
	"semgraph/internal/search"
)

// AddSearchTool registers the semgraph_search tool.
func AddSearchTool(s *server.MCPServer, entities search.EntitySearcher) {
	tool := mcp.NewTool(
		"semgraph_search",
		mcp.WithDescription("Full-text search over extracted code entities (functions, classes, interfaces, types). Supports bleve query syntax including field scoping, wildcards, and fuzzy matching."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query, e.g. 'authenticate' or 'name:parse*'")),
		mcp.WithString("kind",
			mcp.Description("Filter by entity kind: function, class, interface, method, type, variable, module")),
		mcp.WithString("file_path",
			mcp.Description("Wildcard path filter, e.g. 'src/auth/*'")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum results (default: 15, max: 100)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSearchHandler(entities))
}

func createSearchHandler(entities search.EntitySearcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		query, ok := argsMap["query"].(string)
		if !ok || query == "" {
			return mcp.NewToolResultError("query parameter is required"), nil
		}

		options := search.DefaultOptions()
		if kind, ok := argsMap["kind"].(string); ok {
			options.Kind = kind
		}
		if filePath, ok := argsMap["file_path"].(string); ok {
			options.FilePath = filePath
		}
		if limit, ok := argsMap["limit"].(float64); ok {
			options.Limit = int(limit)
		}

		results, err := entities.Search(ctx, query, options)
		if err != nil {
			return nil, fmt.Errorf("entity search failed: %w", err)
		}

		return jsonResult(results)
	}
}

// AddTreeTool registers the semgraph_tree tool for dependency traversal.
func AddTreeTool(s *server.MCPServer, searcher graph.Searcher) {
	tool := mcp.NewTool(
		"semgraph_tree",
		mcp.WithDescription("Navigate the file dependency tree. Operations: children (files this file depends on), parents (files depending on this file), path (shortest dependency path between two files), node (single node details)."),
		mcp.WithString("operation",
			mcp.Required(),
			mcp.Description("One of: 'children', 'parents', 'path', 'node'")),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Node id (normalized relative file path, e.g. 'src/auth/login.ts')")),
		mcp.WithString("to",
			mcp.Description("Destination node id, required for 'path'")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createTreeHandler(searcher))
}

func createTreeHandler(searcher graph.Searcher) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		argsMap, ok := request.Params.Arguments.(map[string]interface{})
		if !ok {
			return mcp.NewToolResultError("invalid arguments format"), nil
		}

		operation, ok := argsMap["operation"].(string)
		if !ok || operation == "" {
			return mcp.NewToolResultError("operation parameter is required"), nil
		}
		target, ok := argsMap["target"].(string)
		if !ok || target == "" {
			return mcp.NewToolResultError("target parameter is required"), nil
		}

		switch operation {
		case "children":
			nodes, err := searcher.Children(target)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(nodes)
		case "parents":
			nodes, err := searcher.Parents(target)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(nodes)
		case "path":
			to, ok := argsMap["to"].(string)
			if !ok || to == "" {
				return mcp.NewToolResultError("'to' parameter is required for path operation"), nil
			}
			path, err := searcher.PathBetween(target, to)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(path)
		case "node":
			node, err := searcher.Node(target)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return jsonResult(node)
		default:
			return mcp.NewToolResultError(fmt.Sprintf("invalid operation: %s (must be one of: children, parents, path, node)", operation)), nil
		}
	}
}

// AddCyclesTool registers the semgraph_cycles tool.
func AddCyclesTool(s *server.MCPServer, searcher graph.Searcher) {
	tool := mcp.NewTool(
		"semgraph_cycles",
		mcp.WithDescription("List detected circular dependencies with severity, involved files, and refactoring suggestions."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(searcher.Cycles())
	})
}

// AddClustersTool registers the semgraph_clusters tool.
func AddClustersTool(s *server.MCPServer, searcher graph.Searcher) {
	tool := mcp.NewTool(
		"semgraph_clusters",
		mcp.WithDescription("List module clusters (directory, domain, or role groupings) with cohesion and coupling scores."),
		mcp.WithString("kind",
			mcp.Description("Filter by cluster kind: 'directory', 'domain', or 'role' (default: all)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind := ""
		if argsMap, ok := request.Params.Arguments.(map[string]interface{}); ok {
			kind, _ = argsMap["kind"].(string)
		}
		return jsonResult(searcher.Clusters(graph.ClusterKind(kind)))
	})
}

func jsonResult(value any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
