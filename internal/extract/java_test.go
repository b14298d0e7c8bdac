package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semgraph/internal/graph"
)

// Test Plan for the Java parser:
// - Record fully qualified imports as IMPORTS relationships
// - Extract classes with superclass and implemented interfaces
// - Extract methods with CONTAINS relationships and modifiers
// - Extract fields as variables
// - Extract interfaces with extends clauses
// - Resolve bare and this-qualified calls against local symbols

const javaSource = `package com.example.service;

import java.util.List;
import com.example.model.User;

public class UserService extends BaseService implements Repository, Auditable {
    private final List<User> users;

    public User find(String id) {
        return this.fetch(id);
    }

    private User fetch(String id) {
        return lookup(id);
    }
}
`

func TestJava_Structure(t *testing.T) {
	t.Parallel()

	result := extractNative(t, "src/main/java/com/example/service/UserService.java", "java", javaSource)

	class := findEntity(result, "UserService", graph.EntityClass)
	require.NotNil(t, class)
	assert.Contains(t, class.Modifiers, "public")

	method := findEntity(result, "find", graph.EntityMethod)
	require.NotNil(t, method)
	assert.Contains(t, method.Signature, "User find(String id)")
	assert.Contains(t, method.Modifiers, "public")

	field := findEntity(result, "users", graph.EntityVariable)
	require.NotNil(t, field)
	assert.Contains(t, field.Modifiers, "private")
	assert.Contains(t, field.Modifiers, "final")
}

func TestJava_Relationships(t *testing.T) {
	t.Parallel()

	result := extractNative(t, "src/main/java/com/example/service/UserService.java", "java", javaSource)

	assert.NotNil(t, findRelationship(result, "UserService", "java.util.List", graph.RelImports))
	assert.NotNil(t, findRelationship(result, "UserService", "com.example.model.User", graph.RelImports))
	assert.NotNil(t, findRelationship(result, "UserService", "BaseService", graph.RelExtends))
	assert.NotNil(t, findRelationship(result, "UserService", "Repository", graph.RelImplements))
	assert.NotNil(t, findRelationship(result, "UserService", "Auditable", graph.RelImplements))
	assert.NotNil(t, findRelationship(result, "UserService", "find", graph.RelContains))

	// this.fetch resolves locally; lookup is not defined in this file
	assert.NotNil(t, findRelationship(result, "find", "fetch", graph.RelCalls))
	assert.Nil(t, findRelationship(result, "fetch", "lookup", graph.RelCalls))
}

func TestJava_Interface(t *testing.T) {
	t.Parallel()

	src := `package com.example;

public interface Repository extends Readable, Writable {
    void save(String id);
}
`
	result := extractNative(t, "src/Repository.java", "java", src)

	iface := findEntity(result, "Repository", graph.EntityInterface)
	require.NotNil(t, iface)

	assert.NotNil(t, findRelationship(result, "Repository", "Readable", graph.RelExtends))
	assert.NotNil(t, findRelationship(result, "Repository", "Writable", graph.RelExtends))
	assert.NotNil(t, findRelationship(result, "Repository", "save", graph.RelContains))
}
