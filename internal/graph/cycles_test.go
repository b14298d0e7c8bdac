package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for cycle detection:
// - A simple two-file cycle is found once with a low-ish severity
// - Rotations of the same loop collapse to a single reported cycle
// - Detection output does not depend on edge insertion order
// - Severity escalates with path length, complexity and size
// - External edges never participate in cycles
// - Acyclic graphs report nothing

func detect(t *testing.T, tree *DependencyTree) []CircularDependency {
	t.Helper()
	return NewCycleDetector(DefaultCycleConfig()).Detect(tree)
}

func TestCycles_TwoFileCycle(t *testing.T) {
	t.Parallel()

	tree := linkedTree(
		[2]string{"src/a.ts", "src/b.ts"},
		[2]string{"src/b.ts", "src/a.ts"},
	)
	cycles := detect(t, tree)

	require.Len(t, cycles, 1)
	cycle := cycles[0]
	assert.ElementsMatch(t, []string{"src/a.ts", "src/b.ts"}, cycle.Path)
	assert.Contains(t, cycle.Description, "2 modules")
	assert.NotEmpty(t, cycle.Suggestions)
	// Length 2 does not exceed any default threshold and the nodes carry
	// no complexity, so this stays low.
	assert.Equal(t, SeverityLow, cycle.Severity)
}

func TestCycles_RotationsCollapse(t *testing.T) {
	t.Parallel()

	// a -> b -> c -> a is one loop however the DFS enters it.
	tree := linkedTree(
		[2]string{"a.ts", "b.ts"},
		[2]string{"b.ts", "c.ts"},
		[2]string{"c.ts", "a.ts"},
	)
	cycles := detect(t, tree)

	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{"a.ts", "b.ts", "c.ts"}, cycles[0].Path)
}

func TestCycles_OrderIndependent(t *testing.T) {
	t.Parallel()

	forward := linkedTree(
		[2]string{"a.ts", "b.ts"},
		[2]string{"b.ts", "a.ts"},
		[2]string{"c.ts", "d.ts"},
		[2]string{"d.ts", "c.ts"},
	)
	reversed := linkedTree(
		[2]string{"d.ts", "c.ts"},
		[2]string{"c.ts", "d.ts"},
		[2]string{"b.ts", "a.ts"},
		[2]string{"a.ts", "b.ts"},
	)

	first := detect(t, forward)
	second := detect(t, reversed)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	for i := range first {
		assert.ElementsMatch(t, first[i].Path, second[i].Path)
		assert.Equal(t, first[i].Severity, second[i].Severity)
	}
}

func TestCycles_SeverityEscalation(t *testing.T) {
	t.Parallel()

	t.Run("long chain is critical", func(t *testing.T) {
		t.Parallel()
		tree := linkedTree(
			[2]string{"a.ts", "b.ts"},
			[2]string{"b.ts", "c.ts"},
			[2]string{"c.ts", "d.ts"},
			[2]string{"d.ts", "e.ts"},
			[2]string{"e.ts", "f.ts"},
			[2]string{"f.ts", "a.ts"},
		)
		cycles := detect(t, tree)
		require.Len(t, cycles, 1)
		assert.Equal(t, SeverityCritical, cycles[0].Severity)
		assert.Contains(t, cycles[0].Suggestions[len(cycles[0].Suggestions)-1], "Split the chain")
	})

	t.Run("complexity drives a short cycle up", func(t *testing.T) {
		t.Parallel()
		tree := linkedTree(
			[2]string{"a.ts", "b.ts"},
			[2]string{"b.ts", "a.ts"},
		)
		tree.Node("a.ts").Complexity = 15
		tree.Node("b.ts").Complexity = 10
		cycles := detect(t, tree)
		require.Len(t, cycles, 1)
		assert.Equal(t, SeverityHigh, cycles[0].Severity)
	})

	t.Run("size alone reaches critical", func(t *testing.T) {
		t.Parallel()
		tree := linkedTree(
			[2]string{"a.ts", "b.ts"},
			[2]string{"b.ts", "a.ts"},
		)
		tree.Node("a.ts").Size = 12000
		cycles := detect(t, tree)
		require.Len(t, cycles, 1)
		assert.Equal(t, SeverityCritical, cycles[0].Severity)
	})
}

func TestCycles_ExternalEdgesIgnored(t *testing.T) {
	t.Parallel()

	tree := linkedTree([2]string{"a.ts", "lodash"})
	tree.Edges = append(tree.Edges, DependencyEdge{From: "lodash", To: "a.ts", Kind: RelImports, Weight: 1, External: true})

	assert.Empty(t, detect(t, tree))
}

func TestCycles_AcyclicGraph(t *testing.T) {
	t.Parallel()

	tree := linkedTree(
		[2]string{"a.ts", "b.ts"},
		[2]string{"b.ts", "c.ts"},
		[2]string{"a.ts", "c.ts"},
	)
	assert.Empty(t, detect(t, tree))
}
