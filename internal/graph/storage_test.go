package graph

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for graph storage:
// - Save then load round-trips the integrated result
// - Save stamps version, timestamp, and node/edge counts
// - Loading a missing file returns nil without error
// - The write is staged in a temp directory and renamed into place
// - Exists reflects whether a graph has been written

func storageResult(t *testing.T) *IntegratedResult {
	t.Helper()
	tree := linkedTree([2]string{"src/a.ts", "src/b.ts"})
	return &IntegratedResult{
		Graph: SemanticGraphData{
			Entities: []CodeEntity{
				{ID: "e1", Name: "a", Kind: EntityModule, File: "src/a.ts"},
			},
		},
		Tree: tree,
		Cycles: []CircularDependency{
			{Path: []string{"src/a.ts", "src/b.ts"}, Severity: SeverityLow, Description: "test"},
		},
	}
}

func TestStorage_SaveAndLoad(t *testing.T) {
	t.Parallel()

	graphDir := filepath.Join(t.TempDir(), "graph")
	storage, err := NewStorage(graphDir)
	require.NoError(t, err)

	require.NoError(t, storage.Save(storageResult(t)))

	loaded, err := storage.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, GraphVersion, loaded.Metadata.Version)
	assert.False(t, loaded.Metadata.GeneratedAt.IsZero())
	assert.Equal(t, 2, loaded.Metadata.NodeCount)
	assert.Equal(t, 1, loaded.Metadata.EdgeCount)
	assert.Len(t, loaded.Graph.Entities, 1)
	require.Len(t, loaded.Cycles, 1)
	assert.Equal(t, SeverityLow, loaded.Cycles[0].Severity)
	require.NotNil(t, loaded.Tree)
	assert.NotNil(t, loaded.Tree.Node("src/a.ts"))
}

func TestStorage_LoadMissingFile(t *testing.T) {
	t.Parallel()

	storage, err := NewStorage(filepath.Join(t.TempDir(), "graph"))
	require.NoError(t, err)

	loaded, err := storage.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStorage_LoadCorruptFile(t *testing.T) {
	t.Parallel()

	graphDir := filepath.Join(t.TempDir(), "graph")
	storage, err := NewStorage(graphDir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(graphDir, GraphFileName), []byte("not json"), 0644))

	_, err = storage.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestStorage_AtomicWriteLeavesNoTempFile(t *testing.T) {
	t.Parallel()

	graphDir := filepath.Join(t.TempDir(), "graph")
	storage, err := NewStorage(graphDir)
	require.NoError(t, err)

	require.NoError(t, storage.Save(storageResult(t)))

	// The staging file must be gone after the rename.
	_, err = os.Stat(filepath.Join(graphDir, ".tmp", GraphFileName))
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(graphDir, GraphFileName))
}

func TestStorage_Exists(t *testing.T) {
	t.Parallel()

	graphDir := filepath.Join(t.TempDir(), "graph")
	storage, err := NewStorage(graphDir)
	require.NoError(t, err)

	assert.False(t, storage.Exists())
	require.NoError(t, storage.Save(storageResult(t)))
	assert.True(t, storage.Exists())
}
