package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for semantic enrichment:
// - Keywords come from the path and entity names, split, lowercased,
//   deduplicated, with stopwords and short fragments dropped
// - Domain inference matches keyword and directory signals, else "general"
// - Role inference matches filename suffixes and directory names
// - Maintainability degrades with size and complexity, floored at zero

func TestSplitIdentifier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"user", "service"}, splitIdentifier("UserService"))
	assert.Equal(t, []string{"parse", "http", "request"}, splitIdentifier("parse_http-request"))
	assert.Equal(t, []string{"token"}, splitIdentifier("token"))
}

func TestEnrich_Keywords(t *testing.T) {
	t.Parallel()

	data := &SemanticGraphData{
		Entities: []CodeEntity{
			{Name: "payment_processor", Kind: EntityModule, File: "src/payment_processor.ts"},
			{Name: "PaymentService", Kind: EntityClass, File: "src/payment_processor.ts"},
			{Name: "charge", Kind: EntityMethod, File: "src/payment_processor.ts"},
			{Name: "getData", Kind: EntityFunction, File: "src/payment_processor.ts"},
		},
	}
	tree := NewTree(testFiles("src/payment_processor.ts"), data)
	tree.Enrich(data)

	node := tree.Node("src/payment_processor.ts")
	assert.Contains(t, node.Meta.Keywords, "payment")
	assert.Contains(t, node.Meta.Keywords, "processor")
	assert.Contains(t, node.Meta.Keywords, "service")
	assert.Contains(t, node.Meta.Keywords, "charge")
	// "get" and "data" are stopwords.
	assert.NotContains(t, node.Meta.Keywords, "get")
	assert.NotContains(t, node.Meta.Keywords, "data")
	assert.IsIncreasing(t, node.Meta.Keywords)
}

func TestEnrich_DomainAndRole(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path   string
		domain string
		role   string
	}{
		{"src/auth/login_handler.ts", "authentication", "controller"},
		{"src/billing/invoice.py", "payments", "unknown"},
		{"src/services/user_service.ts", "user-management", "service"},
		{"src/components/Button.tsx", "general", "ui-component"},
		{"src/helpers/format.ts", "general", "utility"},
		{"src/search/query_builder.ts", "search", "unknown"},
	}

	var paths []string
	for _, tc := range cases {
		paths = append(paths, tc.path)
	}
	tree := NewTree(testFiles(paths...), &SemanticGraphData{})
	tree.Enrich(&SemanticGraphData{})

	for _, tc := range cases {
		node := tree.Node(tc.path)
		require.NotNil(t, node, tc.path)
		assert.Equal(t, tc.domain, node.Meta.Domain, tc.path)
		assert.Equal(t, tc.role, node.Meta.Role, tc.path)
	}
}

func TestEnrich_Maintainability(t *testing.T) {
	t.Parallel()

	fresh := &TreeNode{Size: 0, Complexity: 0}
	assert.InDelta(t, 100.0, maintainabilityIndex(fresh), 1e-9)

	worn := &TreeNode{Size: 4000, Complexity: 10}
	assert.InDelta(t, 65.0, maintainabilityIndex(worn), 1e-9)

	hopeless := &TreeNode{Size: 50000, Complexity: 100}
	assert.Zero(t, maintainabilityIndex(hopeless))
}
