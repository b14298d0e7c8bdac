package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for cross-file import resolution:
// - Resolve relative specifiers by probing extensions
// - Resolve directory imports through index file names
// - Resolve Python dotted module paths
// - Route unresolvable targets to synthetic external nodes when enabled
// - Drop unresolvable targets when external nodes are disabled
// - Deduplicate edges between the same node pair
// - Never emit an edge with a missing endpoint

func testFiles(paths ...string) []FileRecord {
	files := make([]FileRecord, 0, len(paths))
	for _, p := range paths {
		files = append(files, FileRecord{
			Path:         "/project/" + p,
			RelativePath: p,
			Language:     "typescript",
			Size:         100,
			Type:         "file",
		})
	}
	return files
}

func importsOf(sourceFile string, specifiers ...string) *SemanticGraphData {
	data := &SemanticGraphData{FileNodes: map[string]string{}}
	module := "m"
	for i, spec := range specifiers {
		data.Relationships = append(data.Relationships, SemanticRelationship{
			ID:           RelationshipID(sourceFile, module, spec, RelImports, i+1),
			SourceFile:   sourceFile,
			SourceEntity: module,
			TargetEntity: spec,
			Kind:         RelImports,
			Confidence:   0.95,
			Line:         i + 1,
		})
	}
	return data
}

func TestResolver_RelativeSpecifier(t *testing.T) {
	t.Parallel()

	files := testFiles("src/a.ts", "src/b.ts")
	tree := NewTree(files, &SemanticGraphData{})
	data := importsOf("src/a.ts", "./b")

	NewResolver(ResolverConfig{}).Resolve(tree, data)

	require.Len(t, tree.Edges, 1)
	assert.Equal(t, "src/a.ts", tree.Edges[0].From)
	assert.Equal(t, "src/b.ts", tree.Edges[0].To)
	assert.False(t, tree.Edges[0].External)
}

func TestResolver_IndexFile(t *testing.T) {
	t.Parallel()

	files := testFiles("src/app.ts", "src/lib/index.ts")
	tree := NewTree(files, &SemanticGraphData{})
	data := importsOf("src/app.ts", "./lib")

	NewResolver(ResolverConfig{}).Resolve(tree, data)

	require.Len(t, tree.Edges, 1)
	assert.Equal(t, "src/lib/index.ts", tree.Edges[0].To)
}

func TestResolver_PythonDottedPath(t *testing.T) {
	t.Parallel()

	files := []FileRecord{
		{RelativePath: "app/services/user.py", Language: "python", Type: "file"},
		{RelativePath: "app/models.py", Language: "python", Type: "file"},
	}
	tree := NewTree(files, &SemanticGraphData{})
	data := importsOf("app/services/user.py", "app.models")

	NewResolver(ResolverConfig{}).Resolve(tree, data)

	require.Len(t, tree.Edges, 1)
	assert.Equal(t, "app/models.py", tree.Edges[0].To)
}

func TestResolver_ExternalNode(t *testing.T) {
	t.Parallel()

	files := testFiles("src/a.ts")
	tree := NewTree(files, &SemanticGraphData{})
	data := importsOf("src/a.ts", "lodash")

	NewResolver(ResolverConfig{IncludeExternal: true}).Resolve(tree, data)

	require.Len(t, tree.Edges, 1)
	edge := tree.Edges[0]
	assert.True(t, edge.External)

	external := tree.Node(edge.To)
	require.NotNil(t, external)
	assert.Equal(t, NodeExternal, external.Type)
	assert.Equal(t, "lodash", external.Path)
}

func TestResolver_ExternalDisabled(t *testing.T) {
	t.Parallel()

	files := testFiles("src/a.ts")
	tree := NewTree(files, &SemanticGraphData{})
	data := importsOf("src/a.ts", "lodash")

	NewResolver(ResolverConfig{}).Resolve(tree, data)

	assert.Empty(t, tree.Edges)
	assert.Len(t, tree.Nodes, 1)
}

func TestResolver_DeduplicatesEdges(t *testing.T) {
	t.Parallel()

	files := testFiles("src/a.ts", "src/b.ts")
	tree := NewTree(files, &SemanticGraphData{})
	// Two import statements for the same module (named + default import)
	data := importsOf("src/a.ts", "./b", "./b")

	NewResolver(ResolverConfig{}).Resolve(tree, data)

	assert.Len(t, tree.Edges, 1)
}

func TestResolver_NoDanglingEdges(t *testing.T) {
	t.Parallel()

	files := testFiles("src/a.ts", "src/b.ts", "src/c.ts")
	tree := NewTree(files, &SemanticGraphData{})
	data := importsOf("src/a.ts", "./b", "./missing", "../outside", "react", "./c")

	NewResolver(ResolverConfig{IncludeExternal: true}).Resolve(tree, data)

	for _, edge := range tree.Edges {
		assert.NotNil(t, tree.Node(edge.From), "edge source %s must exist", edge.From)
		assert.NotNil(t, tree.Node(edge.To), "edge target %s must exist", edge.To)
	}
}

func TestResolver_SelfImportDropped(t *testing.T) {
	t.Parallel()

	files := testFiles("src/a.ts")
	tree := NewTree(files, &SemanticGraphData{})
	data := importsOf("src/a.ts", "./a")

	NewResolver(ResolverConfig{}).Resolve(tree, data)

	assert.Empty(t, tree.Edges)
}
