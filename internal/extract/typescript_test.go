package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semgraph/internal/graph"
)

// Test Plan for the TypeScript/JavaScript parser:
// - Extract classes with inheritance and implemented interfaces
// - Extract methods with CONTAINS relationships to their class
// - Extract interfaces and their extends clauses
// - Extract standalone and arrow functions
// - Extract top-level constants as variables
// - Record import specifiers as IMPORTS relationships
// - Record calls to locally defined functions
// - Ignore calls to unknown (imported or global) functions
// - Fail with ParseError on broken syntax
// - Parse JSX files with the TSX grammar

const tsSource = `import { User } from './user';
import api from '../lib/api';

export interface Repository {
  find(id: string): User;
}

export class UserService extends BaseService implements Repository {
  find(id: string): User {
    return lookup(id);
  }
}

export function lookup(id: string): User {
  return api.get(id);
}

export const MAX_USERS = 500;

export const formatName = (user: User): string => user.name;
`

func TestTypeScript_Structure(t *testing.T) {
	t.Parallel()

	result := extractNative(t, "src/user_service.ts", "typescript", tsSource)

	// Module entity anchors the file
	module := findEntity(result, "user_service", graph.EntityModule)
	require.NotNil(t, module)
	assert.Equal(t, 1, module.StartLine)

	class := findEntity(result, "UserService", graph.EntityClass)
	require.NotNil(t, class)
	assert.Equal(t, 8, class.StartLine)
	assert.Contains(t, class.Modifiers, "export")

	iface := findEntity(result, "Repository", graph.EntityInterface)
	require.NotNil(t, iface)

	method := findEntity(result, "find", graph.EntityMethod)
	require.NotNil(t, method)
	assert.Contains(t, method.Signature, "find(id: string)")

	fn := findEntity(result, "lookup", graph.EntityFunction)
	require.NotNil(t, fn)

	arrow := findEntity(result, "formatName", graph.EntityFunction)
	require.NotNil(t, arrow, "arrow functions are functions, not variables")

	constant := findEntity(result, "MAX_USERS", graph.EntityVariable)
	require.NotNil(t, constant)
}

func TestTypeScript_Relationships(t *testing.T) {
	t.Parallel()

	result := extractNative(t, "src/user_service.ts", "typescript", tsSource)

	assert.NotNil(t, findRelationship(result, "user_service", "./user", graph.RelImports))
	assert.NotNil(t, findRelationship(result, "user_service", "../lib/api", graph.RelImports))
	assert.NotNil(t, findRelationship(result, "UserService", "BaseService", graph.RelExtends))
	assert.NotNil(t, findRelationship(result, "UserService", "Repository", graph.RelImplements))
	assert.NotNil(t, findRelationship(result, "UserService", "find", graph.RelContains))

	// lookup is defined in this file, so the call resolves
	call := findRelationship(result, "find", "lookup", graph.RelCalls)
	require.NotNil(t, call)
	assert.InDelta(t, 0.8, call.Confidence, 0.001)

	// api.get targets an import, not a local symbol
	assert.Nil(t, findRelationship(result, "lookup", "get", graph.RelCalls))
}

func TestTypeScript_ImportConfidence(t *testing.T) {
	t.Parallel()

	result := extractNative(t, "src/user_service.ts", "typescript", tsSource)

	imp := findRelationship(result, "user_service", "./user", graph.RelImports)
	require.NotNil(t, imp)
	assert.InDelta(t, 0.95, imp.Confidence, 0.001)
}

func TestTypeScript_BrokenSyntax(t *testing.T) {
	t.Parallel()

	n := NewNative()
	_, err := n.Extract(context.Background(),
		record("src/broken.ts", "typescript", 20), []byte("class {{{ nope"))
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "src/broken.ts", parseErr.File)
}

func TestTypeScript_TSX(t *testing.T) {
	t.Parallel()

	src := `export function App() {
  return <div className="app">hello</div>;
}
`
	result := extractNative(t, "src/App.tsx", "typescript", src)
	assert.NotNil(t, findEntity(result, "App", graph.EntityFunction))
}

func TestJavaScript_SharedParser(t *testing.T) {
	t.Parallel()

	src := `const config = require('./config');

class Logger {
  log(msg) {
    write(msg);
  }
}

function write(msg) {
  process.stdout.write(msg);
}
`
	result := extractNative(t, "src/logger.js", "javascript", src)

	assert.NotNil(t, findEntity(result, "Logger", graph.EntityClass))
	assert.NotNil(t, findEntity(result, "write", graph.EntityFunction))
	assert.NotNil(t, findRelationship(result, "Logger", "log", graph.RelContains))
	assert.NotNil(t, findRelationship(result, "log", "write", graph.RelCalls))
}
