package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semgraph/internal/graph"
)

// Test Plan for the Rust parser:
// - Record use declarations as IMPORTS, trimming grouped tails
// - Extract structs, enums, traits, and type aliases
// - Extract free functions and impl-block methods with CONTAINS
// - Record trait impls as IMPLEMENTS relationships
// - Extract constants with the constant modifier
// - Resolve self.method() calls against the local symbol set
// - Tag pub items

const rustSource = `use std::collections::HashMap;
use crate::store::{Store, Error};

pub const MAX_ENTRIES: usize = 100;

pub struct Registry {
    entries: HashMap<String, String>,
}

pub trait Lookup {
    fn get(&self, key: &str) -> Option<String>;
}

impl Lookup for Registry {
    fn get(&self, key: &str) -> Option<String> {
        self.normalize(key)
    }
}

impl Registry {
    fn normalize(&self, key: &str) -> Option<String> {
        validate(key)
    }
}

pub fn validate(key: &str) -> Option<String> {
    None
}
`

func TestRust_Structure(t *testing.T) {
	t.Parallel()

	result := extractNative(t, "src/registry.rs", "rust", rustSource)

	registry := findEntity(result, "Registry", graph.EntityClass)
	require.NotNil(t, registry)
	assert.Contains(t, registry.Modifiers, "pub")

	trait := findEntity(result, "Lookup", graph.EntityInterface)
	require.NotNil(t, trait)

	constant := findEntity(result, "MAX_ENTRIES", graph.EntityVariable)
	require.NotNil(t, constant)
	assert.Contains(t, constant.Modifiers, "constant")

	fn := findEntity(result, "validate", graph.EntityFunction)
	require.NotNil(t, fn)
	assert.Contains(t, fn.Signature, "fn validate(key: &str)")
	assert.Contains(t, fn.Signature, "-> Option<String>")

	method := findEntity(result, "normalize", graph.EntityMethod)
	require.NotNil(t, method)
}

func TestRust_Relationships(t *testing.T) {
	t.Parallel()

	result := extractNative(t, "src/registry.rs", "rust", rustSource)

	assert.NotNil(t, findRelationship(result, "registry", "std::collections::HashMap", graph.RelImports))
	// Grouped use keeps the stable path prefix
	assert.NotNil(t, findRelationship(result, "registry", "crate::store", graph.RelImports))

	assert.NotNil(t, findRelationship(result, "Registry", "Lookup", graph.RelImplements))
	assert.NotNil(t, findRelationship(result, "Registry", "normalize", graph.RelContains))
	assert.NotNil(t, findRelationship(result, "Registry", "get", graph.RelContains))

	// self.normalize resolves locally, and so does the free call
	assert.NotNil(t, findRelationship(result, "get", "normalize", graph.RelCalls))
	assert.NotNil(t, findRelationship(result, "normalize", "validate", graph.RelCalls))
}
