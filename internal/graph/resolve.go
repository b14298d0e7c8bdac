package graph

import (
	"path"
	"strings"
)

// ResolverConfig tunes cross-file import resolution.
type ResolverConfig struct {
	// ProbeExtensions are tried in order when an import target has no
	// extension.
	ProbeExtensions []string
	// IndexNames are probed inside a directory target (index.ts style).
	IndexNames []string
	// IncludeExternal creates synthetic external nodes for unresolvable
	// targets instead of dropping them.
	IncludeExternal bool
}

// DefaultProbeExtensions is the extension probe order for import targets.
func DefaultProbeExtensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx", ".py", ".go", ".java", ".rs", ".rb", ".php"}
}

// DefaultIndexNames are the conventional directory entry files.
func DefaultIndexNames() []string {
	return []string{"index.ts", "index.tsx", "index.js", "index.jsx", "__init__.py", "mod.rs"}
}

// Resolver resolves raw import targets to tree nodes and produces the
// file-level dependency edge set. Dangling edges are dropped, never stored;
// external targets become synthetic nodes only when requested, created
// lazily and deduplicated by target name.
type Resolver struct {
	cfg ResolverConfig
}

// NewResolver builds a resolver, filling zero-value config with defaults.
func NewResolver(cfg ResolverConfig) *Resolver {
	if cfg.ProbeExtensions == nil {
		cfg.ProbeExtensions = DefaultProbeExtensions()
	}
	if cfg.IndexNames == nil {
		cfg.IndexNames = DefaultIndexNames()
	}
	return &Resolver{cfg: cfg}
}

// Resolve turns the merged semantic relationships into dependency edges
// over the tree's node arena. Nodes for external targets are added to the
// tree when IncludeExternal is set.
func (r *Resolver) Resolve(tree *DependencyTree, data *SemanticGraphData) {
	// Index nodes by path for target lookup.
	byPath := make(map[string]string, len(tree.Nodes))
	for id, node := range tree.Nodes {
		if node.Type == NodeFile {
			byPath[node.Path] = id
		}
	}

	seen := make(map[string]bool)
	for _, rel := range data.Relationships {
		if rel.Kind != RelImports {
			continue
		}
		fromID := NodeID(rel.SourceFile)
		fromNode := tree.Node(fromID)
		if fromNode == nil {
			continue
		}

		target, external := r.resolveTarget(rel.SourceFile, rel.TargetEntity, byPath)
		if target == "" {
			continue
		}

		var edge DependencyEdge
		if external {
			if !r.cfg.IncludeExternal {
				continue
			}
			extID := ExternalNodeID(target)
			if tree.Node(extID) == nil {
				tree.Nodes[extID] = &TreeNode{
					ID:       extID,
					Path:     target,
					Name:     target,
					Type:     NodeExternal,
					Children: []string{},
					Parents:  []string{},
				}
			}
			edge = DependencyEdge{
				From:     fromID,
				To:       extID,
				Kind:     RelImports,
				Weight:   edgeWeight(fromNode, false),
				Line:     rel.Line,
				External: true,
			}
		} else {
			toID := byPath[target]
			if toID == "" || toID == fromID {
				continue
			}
			edge = DependencyEdge{
				From:   fromID,
				To:     toID,
				Kind:   RelImports,
				Weight: edgeWeight(fromNode, true),
				Line:   rel.Line,
			}
		}

		key := edge.From + "->" + edge.To
		if seen[key] {
			continue
		}
		seen[key] = true
		tree.Edges = append(tree.Edges, edge)

		if node := tree.Node(edge.To); node != nil && rel.TargetEntity != "" {
			node.Meta.Imports = appendUnique(node.Meta.Imports, rel.TargetEntity)
		}
	}
}

// resolveTarget maps an import specifier to a known file path, or reports
// it external. Relative specifiers probe the configured extensions against
// the importing file's directory, then the index names; anything else is
// external.
func (r *Resolver) resolveTarget(sourceFile, specifier string, byPath map[string]string) (string, bool) {
	if specifier == "" {
		return "", false
	}
	if !strings.HasPrefix(specifier, "./") && !strings.HasPrefix(specifier, "../") {
		// Dotted module paths (Python) may still resolve inside the tree.
		if p := r.probeModulePath(sourceFile, specifier, byPath); p != "" {
			return p, false
		}
		return specifier, true
	}

	base := path.Join(path.Dir(NodeID(sourceFile)), specifier)
	if p := r.probe(base, byPath); p != "" {
		return p, false
	}
	// Out-of-scope relative target; treat like an external dependency.
	return specifier, true
}

func (r *Resolver) probe(base string, byPath map[string]string) string {
	if _, ok := byPath[base]; ok {
		return base
	}
	for _, ext := range r.cfg.ProbeExtensions {
		if candidate := base + ext; byPath[candidate] != "" {
			return candidate
		}
	}
	for _, index := range r.cfg.IndexNames {
		if candidate := path.Join(base, index); byPath[candidate] != "" {
			return candidate
		}
	}
	return ""
}

// probeModulePath resolves dotted module specifiers ("pkg.mod") relative
// to the importing file's directory and the tree root.
func (r *Resolver) probeModulePath(sourceFile, specifier string, byPath map[string]string) string {
	if strings.ContainsAny(specifier, "/\\") {
		return ""
	}
	slashed := strings.ReplaceAll(specifier, ".", "/")
	if p := r.probe(path.Join(path.Dir(NodeID(sourceFile)), slashed), byPath); p != "" {
		return p
	}
	return r.probe(slashed, byPath)
}

// edgeWeight derives an edge weight from the source node's shape: internal
// edges outweigh external ones, exported modules and complex sources add
// weight.
func edgeWeight(from *TreeNode, internal bool) int {
	weight := 1
	if internal {
		weight += 2
	}
	if len(from.Meta.Exports) > 0 {
		weight++
	}
	if from.Complexity > 10 {
		weight++
	}
	return weight
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
