package graph

import (
	"fmt"
	"sort"
	"strings"
)

// CycleConfig holds the severity thresholds for circular dependencies.
// The cutoffs are heuristic and deliberately configurable.
type CycleConfig struct {
	CriticalLength     int
	CriticalComplexity int
	CriticalSize       int64
	HighLength         int
	HighComplexity     int
	HighSize           int64
	MediumLength       int
	MediumComplexity   int
}

// DefaultCycleConfig returns the default severity thresholds.
func DefaultCycleConfig() CycleConfig {
	return CycleConfig{
		CriticalLength:     5,
		CriticalComplexity: 50,
		CriticalSize:       10000,
		HighLength:         3,
		HighComplexity:     20,
		HighSize:           5000,
		MediumLength:       2,
		MediumComplexity:   10,
	}
}

// CycleDetector finds circular dependency chains in the edge set.
type CycleDetector struct {
	cfg CycleConfig
}

// NewCycleDetector builds a detector with the given thresholds; a zero
// config gets the defaults.
func NewCycleDetector(cfg CycleConfig) *CycleDetector {
	if cfg.MediumLength == 0 {
		cfg = DefaultCycleConfig()
	}
	return &CycleDetector{cfg: cfg}
}

// Detect runs a depth-first search per unvisited node with an explicit
// recursion stack. Revisiting a node on the stack closes a cycle: the path
// slice from that node's first occurrence is the cycle. Equivalent cycles
// are deduplicated by their canonical sorted-path key, keeping the
// highest-severity instance, so the result is independent of input order.
func (d *CycleDetector) Detect(tree *DependencyTree) []CircularDependency {
	adjacency := make(map[string][]string)
	for _, edge := range tree.Edges {
		if edge.External {
			continue
		}
		adjacency[edge.From] = append(adjacency[edge.From], edge.To)
	}
	for _, targets := range adjacency {
		sort.Strings(targets)
	}

	ids := make([]string, 0, len(tree.Nodes))
	for id := range tree.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string
	found := make(map[string]CircularDependency)

	var dfs func(id string)
	dfs = func(id string) {
		visited[id] = true
		onStack[id] = true
		path = append(path, id)

		for _, next := range adjacency[id] {
			if onStack[next] {
				// Slice the cycle out of the current path.
				for i, p := range path {
					if p == next {
						d.record(found, tree, append([]string(nil), path[i:]...))
						break
					}
				}
				continue
			}
			if !visited[next] {
				dfs(next)
			}
		}

		path = path[:len(path)-1]
		onStack[id] = false
	}

	for _, id := range ids {
		if !visited[id] {
			dfs(id)
		}
	}

	cycles := make([]CircularDependency, 0, len(found))
	keys := make([]string, 0, len(found))
	for key := range found {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		cycles = append(cycles, found[key])
	}
	return cycles
}

func (d *CycleDetector) record(found map[string]CircularDependency, tree *DependencyTree, cyclePath []string) {
	key := canonicalCycleKey(cyclePath)
	cycle := CircularDependency{
		Path:        cyclePath,
		Severity:    d.severity(tree, cyclePath),
		Description: describeCycle(cyclePath),
		Suggestions: suggestForCycle(cyclePath),
	}
	if existing, ok := found[key]; ok && severityRank(existing.Severity) >= severityRank(cycle.Severity) {
		return
	}
	found[key] = cycle
}

// severity grades a cycle from its length and the summed complexity and
// size of the nodes on it.
func (d *CycleDetector) severity(tree *DependencyTree, cyclePath []string) Severity {
	var complexity int
	var size int64
	for _, id := range cyclePath {
		if node := tree.Node(id); node != nil {
			complexity += node.Complexity
			size += node.Size
		}
	}
	length := len(cyclePath)

	switch {
	case length > d.cfg.CriticalLength || complexity > d.cfg.CriticalComplexity || size > d.cfg.CriticalSize:
		return SeverityCritical
	case length > d.cfg.HighLength || complexity > d.cfg.HighComplexity || size > d.cfg.HighSize:
		return SeverityHigh
	case length > d.cfg.MediumLength || complexity > d.cfg.MediumComplexity:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// canonicalCycleKey keys a cycle on its sorted member set so rotations and
// reversals of the same loop collapse together.
func canonicalCycleKey(cyclePath []string) string {
	sorted := append([]string(nil), cyclePath...)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

func describeCycle(cyclePath []string) string {
	return fmt.Sprintf("Circular dependency of %d modules: %s -> %s",
		len(cyclePath), strings.Join(cyclePath, " -> "), cyclePath[0])
}

func suggestForCycle(cyclePath []string) []string {
	suggestions := []string{
		"Extract the shared pieces into a module both sides can depend on",
		"Invert one dependency behind an interface defined by the consumer",
	}
	if len(cyclePath) > 3 {
		suggestions = append(suggestions, "Split the chain: long cycles usually hide a missing layer boundary")
	}
	return suggestions
}
