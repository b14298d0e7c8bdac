package graph

import (
	"fmt"
	"path"
	"sort"
)

// ClusterConfig holds the grouping thresholds for the cluster analyzer.
type ClusterConfig struct {
	// MinDirectorySize is the smallest directory group kept.
	MinDirectorySize int
	// MinDomainSize is the smallest business-domain group kept.
	MinDomainSize int
	// MinRoleSize is the smallest architectural-role group kept. Roles are
	// coarser than domains, so the bar is higher.
	MinRoleSize int
	// SimilarityThreshold is the Jaccard cutoff for the similar-node
	// relation.
	SimilarityThreshold float64
}

// DefaultClusterConfig returns the default grouping thresholds.
func DefaultClusterConfig() ClusterConfig {
	return ClusterConfig{
		MinDirectorySize:    2,
		MinDomainSize:       2,
		MinRoleSize:         3,
		SimilarityThreshold: 0.3,
	}
}

// ClusterAnalyzer groups tree nodes by directory and by inferred semantic
// signals, scoring each cluster's cohesion and coupling.
type ClusterAnalyzer struct {
	cfg ClusterConfig
}

// NewClusterAnalyzer builds an analyzer; a zero config gets the defaults.
func NewClusterAnalyzer(cfg ClusterConfig) *ClusterAnalyzer {
	if cfg.MinDirectorySize == 0 {
		defaults := DefaultClusterConfig()
		if cfg.MinDirectorySize == 0 {
			cfg.MinDirectorySize = defaults.MinDirectorySize
		}
		if cfg.MinDomainSize == 0 {
			cfg.MinDomainSize = defaults.MinDomainSize
		}
		if cfg.MinRoleSize == 0 {
			cfg.MinRoleSize = defaults.MinRoleSize
		}
		if cfg.SimilarityThreshold == 0 {
			cfg.SimilarityThreshold = defaults.SimilarityThreshold
		}
	}
	return &ClusterAnalyzer{cfg: cfg}
}

// Analyze runs the directory pass and the semantic (domain, role) passes.
// Enrich must have run first so domain and role labels are populated.
func (a *ClusterAnalyzer) Analyze(tree *DependencyTree) []ModuleCluster {
	var clusters []ModuleCluster

	clusters = append(clusters, a.groupBy(tree, ClusterDirectory, a.cfg.MinDirectorySize, func(n *TreeNode) string {
		dir := path.Dir(n.Path)
		if dir == "." {
			return "(root)"
		}
		return dir
	})...)

	clusters = append(clusters, a.groupBy(tree, ClusterDomain, a.cfg.MinDomainSize, func(n *TreeNode) string {
		return n.Meta.Domain
	})...)

	clusters = append(clusters, a.groupBy(tree, ClusterRole, a.cfg.MinRoleSize, func(n *TreeNode) string {
		if n.Meta.Role == "unknown" {
			return ""
		}
		return n.Meta.Role
	})...)

	return clusters
}

func (a *ClusterAnalyzer) groupBy(tree *DependencyTree, kind ClusterKind, minSize int, keyFn func(*TreeNode) string) []ModuleCluster {
	groups := make(map[string][]string)
	for id, node := range tree.Nodes {
		if node.Type != NodeFile {
			continue
		}
		if key := keyFn(node); key != "" {
			groups[key] = append(groups[key], id)
		}
	}

	keys := make([]string, 0, len(groups))
	for key, members := range groups {
		if len(members) >= minSize {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	clusters := make([]ModuleCluster, 0, len(keys))
	for _, key := range keys {
		members := groups[key]
		sort.Strings(members)
		cohesion, coupling := a.score(tree, members)
		clusters = append(clusters, ModuleCluster{
			ID:          string(kind) + ":" + key,
			Name:        key,
			Kind:        kind,
			Members:     members,
			Cohesion:    cohesion,
			Coupling:    coupling,
			Description: fmt.Sprintf("%s cluster %q with %d members", kind, key, len(members)),
		})
	}
	return clusters
}

// score computes cohesion as internal-edge density (internal edges over
// the maximum possible directed edges between members) and coupling as
// boundary-crossing edges per member.
func (a *ClusterAnalyzer) score(tree *DependencyTree, members []string) (cohesion, coupling float64) {
	memberSet := make(map[string]bool, len(members))
	for _, id := range members {
		memberSet[id] = true
	}

	var internal, boundary int
	for _, edge := range tree.Edges {
		fromIn := memberSet[edge.From]
		toIn := memberSet[edge.To]
		switch {
		case fromIn && toIn:
			internal++
		case fromIn || toIn:
			boundary++
		}
	}

	n := len(members)
	if maxInternal := n * (n - 1); maxInternal > 0 {
		cohesion = float64(internal) / float64(maxInternal)
	}
	if n > 0 {
		coupling = float64(boundary) / float64(n)
	}
	return cohesion, coupling
}
