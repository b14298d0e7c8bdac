package graph

import (
	"path"
	"sort"
	"strings"
)

// entryPointNames are the conventional entry-point base names checked
// during root selection, in preference order.
var entryPointNames = []string{"index", "main", "app", "server", "cli"}

// NewTree builds the node arena from the merged extraction data. One file
// node per entry in the file map; node complexity is derived from the
// file's extracted entities and relationships.
func NewTree(files []FileRecord, data *SemanticGraphData) *DependencyTree {
	tree := &DependencyTree{
		Nodes: make(map[string]*TreeNode, len(files)),
		Edges: []DependencyEdge{},
	}

	entityCount := make(map[string]int)
	relCount := make(map[string]int)
	exports := make(map[string][]string)
	for _, ent := range data.Entities {
		if ent.Kind != EntityModule {
			entityCount[ent.File]++
		}
		for _, mod := range ent.Modifiers {
			if mod == "export" || mod == "exported" || mod == "pub" || mod == "public" {
				exports[ent.File] = append(exports[ent.File], ent.Name)
				break
			}
		}
	}
	for _, rel := range data.Relationships {
		relCount[rel.SourceFile]++
	}

	for _, f := range files {
		if f.Type != "" && f.Type != "file" {
			continue
		}
		id := NodeID(f.RelativePath)
		tree.Nodes[id] = &TreeNode{
			ID:       id,
			Path:     id,
			Name:     path.Base(id),
			Type:     NodeFile,
			Language: f.Language,
			Size:     f.Size,
			// Symbol density is the complexity proxy: each declared
			// entity counts 1, each relationship adds half.
			Complexity: entityCount[f.RelativePath] + relCount[f.RelativePath]/2,
			Children:   []string{},
			Parents:    []string{},
			Meta: NodeMeta{
				LastModified: f.ModTime,
				Exports:      exports[f.RelativePath],
				IsLeaf:       true,
			},
		}
	}
	return tree
}

// Link rebuilds parent/child relations from the edge set: an edge's source
// gains the target as a child, the target gains the source as a parent.
// Leaf flags are recomputed afterwards, keeping the isLeaf invariant.
func (t *DependencyTree) Link() {
	for _, node := range t.Nodes {
		node.Children = node.Children[:0]
		node.Parents = node.Parents[:0]
	}
	for _, edge := range t.Edges {
		from := t.Node(edge.From)
		to := t.Node(edge.To)
		if from == nil || to == nil {
			continue
		}
		from.Children = appendUnique(from.Children, to.ID)
		to.Parents = appendUnique(to.Parents, from.ID)
	}
	t.RecomputeLeaves()
}

// RecomputeLeaves restores isLeaf == (len(children) == 0) for every node.
// Call after any edge mutation.
func (t *DependencyTree) RecomputeLeaves() {
	for _, node := range t.Nodes {
		node.Meta.IsLeaf = len(node.Children) == 0
	}
}

// SelectRoot chooses the tree root: a parentless node whose base name
// matches an entry-point convention, else any parentless node, else a
// synthesized virtual root adopting every orphan. Entry-point flags are
// set on the way.
func (t *DependencyTree) SelectRoot() {
	var orphans []string
	for id, node := range t.Nodes {
		if len(node.Parents) == 0 && node.Type != NodeExternal {
			orphans = append(orphans, id)
		}
	}
	sort.Strings(orphans)

	for _, id := range orphans {
		if isEntryPointName(t.Nodes[id].Name) {
			t.Nodes[id].Meta.IsEntryPoint = true
		}
	}

	for _, entry := range entryPointNames {
		for _, id := range orphans {
			if baseNameWithoutExt(t.Nodes[id].Name) == entry {
				t.RootID = id
				return
			}
		}
	}
	if len(orphans) > 0 {
		t.RootID = orphans[0]
		return
	}

	// No parentless node exists (the whole graph is cyclic): synthesize a
	// virtual root adopting every node.
	var adopted []string
	for id := range t.Nodes {
		adopted = append(adopted, id)
	}
	sort.Strings(adopted)
	root := &TreeNode{
		ID:       VirtualRootID,
		Path:     "",
		Name:     "root",
		Type:     NodeVirtual,
		Children: []string{},
		Parents:  []string{},
	}
	t.Nodes[VirtualRootID] = root
	for _, id := range adopted {
		root.Children = append(root.Children, id)
		t.Nodes[id].Parents = appendUnique(t.Nodes[id].Parents, VirtualRootID)
	}
	t.RootID = VirtualRootID
	t.RecomputeLeaves()
}

// Children returns the child nodes of id in stable order.
func (t *DependencyTree) Children(id string) []*TreeNode {
	node := t.Node(id)
	if node == nil {
		return nil
	}
	out := make([]*TreeNode, 0, len(node.Children))
	for _, childID := range node.Children {
		if child := t.Node(childID); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// Parents returns the parent nodes of id in stable order.
func (t *DependencyTree) Parents(id string) []*TreeNode {
	node := t.Node(id)
	if node == nil {
		return nil
	}
	out := make([]*TreeNode, 0, len(node.Parents))
	for _, parentID := range node.Parents {
		if parent := t.Node(parentID); parent != nil {
			out = append(out, parent)
		}
	}
	return out
}

func isEntryPointName(name string) bool {
	base := baseNameWithoutExt(name)
	for _, entry := range entryPointNames {
		if base == entry {
			return true
		}
	}
	return false
}

func baseNameWithoutExt(name string) string {
	base := path.Base(name)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.ToLower(base)
}
