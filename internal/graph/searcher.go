package graph

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dominikbraun/graph"
)

// Searcher answers read-only tree queries over a built graph: children,
// parents, and shortest path between two nodes. All operations are safe
// for concurrent use.
type Searcher interface {
	// Children returns the direct dependencies of a node.
	Children(id string) ([]*TreeNode, error)

	// Parents returns the direct dependents of a node.
	Parents(id string) ([]*TreeNode, error)

	// PathBetween returns the node ids on the shortest dependency path
	// from one node to another, inclusive.
	PathBetween(fromID, toID string) ([]string, error)

	// Node returns a single node by id.
	Node(id string) (*TreeNode, error)

	// Cycles returns the detected circular dependencies.
	Cycles() []CircularDependency

	// Clusters returns the module clusters, optionally filtered by kind.
	Clusters(kind ClusterKind) []ModuleCluster
}

// searcher implements Searcher over an IntegratedResult with an in-memory
// adjacency graph.
type searcher struct {
	mu     sync.RWMutex
	result *IntegratedResult
	dag    graph.Graph[string, *TreeNode]
}

// NewSearcher indexes a built result for querying.
func NewSearcher(result *IntegratedResult) (Searcher, error) {
	if result == nil || result.Tree == nil {
		return nil, fmt.Errorf("no graph to search")
	}

	dag := graph.New(func(n *TreeNode) string { return n.ID }, graph.Directed())
	for _, node := range result.Tree.Nodes {
		if err := dag.AddVertex(node); err != nil {
			return nil, fmt.Errorf("failed to add node %s: %w", node.ID, err)
		}
	}
	for _, edge := range result.Tree.Edges {
		// Duplicate and cyclic edges are tolerated; node existence was
		// guaranteed by the resolver's dangling-edge filtering.
		_ = dag.AddEdge(edge.From, edge.To, graph.EdgeWeight(edge.Weight))
	}

	return &searcher{result: result, dag: dag}, nil
}

func (s *searcher) Node(id string) (*TreeNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node := s.result.Tree.Node(id)
	if node == nil {
		return nil, fmt.Errorf("unknown node %q", id)
	}
	return node, nil
}

func (s *searcher) Children(id string) ([]*TreeNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result.Tree.Node(id) == nil {
		return nil, fmt.Errorf("unknown node %q", id)
	}
	return s.result.Tree.Children(id), nil
}

func (s *searcher) Parents(id string) ([]*TreeNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result.Tree.Node(id) == nil {
		return nil, fmt.Errorf("unknown node %q", id)
	}
	return s.result.Tree.Parents(id), nil
}

func (s *searcher) PathBetween(fromID, toID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result.Tree.Node(fromID) == nil {
		return nil, fmt.Errorf("unknown node %q", fromID)
	}
	if s.result.Tree.Node(toID) == nil {
		return nil, fmt.Errorf("unknown node %q", toID)
	}
	path, err := graph.ShortestPath(s.dag, fromID, toID)
	if err != nil {
		return nil, fmt.Errorf("no path from %q to %q", fromID, toID)
	}
	return path, nil
}

func (s *searcher) Cycles() []CircularDependency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result.Cycles
}

func (s *searcher) Clusters(kind ClusterKind) []ModuleCluster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if kind == "" {
		return s.result.Clusters
	}
	var out []ModuleCluster
	for _, cluster := range s.result.Clusters {
		if cluster.Kind == kind {
			out = append(out, cluster)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
