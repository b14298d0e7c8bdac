package storage

import (
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semgraph/internal/graph"
)

// Test Plan for the SQLite graph store:
// - AddNode is idempotent: re-adding the same id overwrites, no error
// - Node metadata round-trips through the JSON column
// - AddRelationship requires both endpoints and upserts on conflict
// - BatchCreateNodes writes all nodes in one transaction
// - WriteResult persists a full integrated result
// - Close releases an owned connection but leaves a borrowed one open

func newTestStore(t *testing.T) (GraphStore, *sql.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	store, err := NewGraphStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return store, db
}

func fileNode(id string) *graph.TreeNode {
	return &graph.TreeNode{
		ID:       id,
		Path:     id,
		Name:     filepath.Base(id),
		Type:     graph.NodeFile,
		Language: "typescript",
		Size:     100,
	}
}

func TestStore_AddNodeIdempotent(t *testing.T) {
	t.Parallel()

	store, db := newTestStore(t)

	node := fileNode("src/a.ts")
	require.NoError(t, store.AddNode(node))

	node.Size = 250
	node.Complexity = 7
	require.NoError(t, store.AddNode(node))

	var count, size, complexity int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, db.QueryRow("SELECT size, complexity FROM nodes WHERE id = ?", "src/a.ts").Scan(&size, &complexity))
	assert.Equal(t, 250, size)
	assert.Equal(t, 7, complexity)
}

func TestStore_AddNodeRequiresID(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	require.Error(t, store.AddNode(&graph.TreeNode{}))
	require.Error(t, store.AddNode(nil))
}

func TestStore_NodeMetaRoundTrip(t *testing.T) {
	t.Parallel()

	store, db := newTestStore(t)

	node := fileNode("src/auth.ts")
	node.Meta.Domain = "authentication"
	node.Meta.Keywords = []string{"auth", "login"}
	require.NoError(t, store.AddNode(node))

	var raw string
	require.NoError(t, db.QueryRow("SELECT meta FROM nodes WHERE id = ?", node.ID).Scan(&raw))

	var meta graph.NodeMeta
	require.NoError(t, json.Unmarshal([]byte(raw), &meta))
	assert.Equal(t, "authentication", meta.Domain)
	assert.Equal(t, []string{"auth", "login"}, meta.Keywords)
}

func TestStore_AddRelationship(t *testing.T) {
	t.Parallel()

	store, db := newTestStore(t)

	require.NoError(t, store.AddNode(fileNode("a.ts")))
	require.NoError(t, store.AddNode(fileNode("b.ts")))

	edge := graph.DependencyEdge{From: "a.ts", To: "b.ts", Kind: graph.RelImports, Weight: 2, Line: 3}
	require.NoError(t, store.AddRelationship(edge))

	// Same endpoints and kind: upsert, not a second row.
	edge.Weight = 5
	require.NoError(t, store.AddRelationship(edge))

	var count, weight int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, db.QueryRow("SELECT weight FROM edges WHERE from_id = ? AND to_id = ?", "a.ts", "b.ts").Scan(&weight))
	assert.Equal(t, 5, weight)
}

func TestStore_AddRelationshipMissingEndpoint(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	require.NoError(t, store.AddNode(fileNode("a.ts")))

	err := store.AddRelationship(graph.DependencyEdge{From: "a.ts", To: "ghost.ts", Kind: graph.RelImports})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost.ts")
	assert.Contains(t, err.Error(), "does not exist")
}

func TestStore_BatchCreateNodes(t *testing.T) {
	t.Parallel()

	store, db := newTestStore(t)

	nodes := []*graph.TreeNode{fileNode("a.ts"), fileNode("b.ts"), fileNode("c.ts")}
	require.NoError(t, store.BatchCreateNodes(nodes))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count))
	assert.Equal(t, 3, count)
}

func TestStore_BatchRollsBackOnBadNode(t *testing.T) {
	t.Parallel()

	store, db := newTestStore(t)

	nodes := []*graph.TreeNode{fileNode("a.ts"), {ID: ""}}
	require.Error(t, store.BatchCreateNodes(nodes))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&count))
	assert.Zero(t, count)
}

func TestStore_WriteResult(t *testing.T) {
	t.Parallel()

	store, db := newTestStore(t)

	tree := &graph.DependencyTree{
		Nodes: map[string]*graph.TreeNode{
			"a.ts": fileNode("a.ts"),
			"b.ts": fileNode("b.ts"),
		},
		Edges: []graph.DependencyEdge{
			{From: "a.ts", To: "b.ts", Kind: graph.RelImports, Weight: 1},
		},
	}
	require.NoError(t, WriteResult(store, &graph.IntegratedResult{Tree: tree}))

	var nodeCount, edgeCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM nodes").Scan(&nodeCount))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM edges").Scan(&edgeCount))
	assert.Equal(t, 2, nodeCount)
	assert.Equal(t, 1, edgeCount)

	require.Error(t, WriteResult(store, nil))
}

func TestStore_BorrowedConnectionStaysOpen(t *testing.T) {
	t.Parallel()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, createSchema(db))

	store := NewGraphStoreWithDB(db)
	require.NoError(t, store.AddNode(fileNode("a.ts")))
	require.NoError(t, store.Close())

	// The borrowed connection is still usable after Close.
	require.NoError(t, store.AddNode(fileNode("b.ts")))
}
