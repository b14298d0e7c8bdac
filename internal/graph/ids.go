package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strconv"
	"strings"
)

// Synthetic node id prefixes. External nodes are deduplicated by target
// name; the virtual root exists only when no natural root is found.
const (
	ExternalNodePrefix = "external:"
	VirtualRootID      = "virtual:root"
)

// EntityID derives a stable entity id from the identifying fields. Ids are
// content-addressed so repeated runs over the same tree produce identical
// graphs, which keeps incremental rebuilds and test fixtures deterministic.
func EntityID(file string, kind EntityKind, name string, startLine int) string {
	return shortHash(file + "|" + string(kind) + "|" + name + "|" + strconv.Itoa(startLine))
}

// RelationshipID derives a stable relationship id.
func RelationshipID(sourceFile, sourceEntity, targetEntity string, kind RelationshipKind, line int) string {
	return shortHash(sourceFile + "|" + sourceEntity + "|" + targetEntity + "|" + string(kind) + "|" + strconv.Itoa(line))
}

// NodeID derives a tree node id from a relative path. The cleaned
// slash-separated path is the id: unique per file and readable in output.
func NodeID(relPath string) string {
	p := path.Clean(strings.ReplaceAll(relPath, "\\", "/"))
	return strings.TrimPrefix(p, "./")
}

// ExternalNodeID derives the synthetic node id for an external target.
func ExternalNodeID(target string) string {
	return ExternalNodePrefix + target
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
