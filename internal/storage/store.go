// Package storage persists the built semantic graph to SQLite. Node
// creation is idempotent per logical key; relationship creation requires
// both endpoints to already exist.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"semgraph/internal/graph"
)

// GraphStore is the abstract write contract the engine hands its finished
// graph to.
type GraphStore interface {
	// AddNode upserts one tree node, keyed on its id.
	AddNode(node *graph.TreeNode) error

	// AddRelationship inserts one edge. Both endpoints must exist.
	AddRelationship(edge graph.DependencyEdge) error

	// BatchCreateNodes upserts many nodes in a single transaction.
	BatchCreateNodes(nodes []*graph.TreeNode) error

	// Close releases the database connection if owned by this store.
	Close() error
}

// sqliteStore implements GraphStore over SQLite.
type sqliteStore struct {
	db     *sql.DB
	ownsDB bool
}

// NewGraphStore opens (or creates) the database at dbPath and ensures the
// schema exists.
func NewGraphStore(dbPath string) (GraphStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db, ownsDB: true}, nil
}

// NewGraphStoreWithDB wraps an existing connection. The caller owns the
// connection lifecycle and must have created the schema.
func NewGraphStoreWithDB(db *sql.DB) GraphStore {
	return &sqliteStore{db: db, ownsDB: false}
}

func createSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	id          TEXT PRIMARY KEY,
	path        TEXT NOT NULL,
	name        TEXT NOT NULL,
	type        TEXT NOT NULL,
	language    TEXT,
	size        INTEGER NOT NULL DEFAULT 0,
	complexity  INTEGER NOT NULL DEFAULT 0,
	meta        TEXT
);
CREATE TABLE IF NOT EXISTS edges (
	from_id  TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	to_id    TEXT NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	kind     TEXT NOT NULL,
	weight   INTEGER NOT NULL DEFAULT 1,
	line     INTEGER,
	external INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (from_id, to_id, kind)
);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);
CREATE INDEX IF NOT EXISTS idx_nodes_path ON nodes(path);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// AddNode upserts one node. Re-adding the same id overwrites the row, so
// repeated writes of the same logical node are safe.
func (s *sqliteStore) AddNode(node *graph.TreeNode) error {
	return upsertNode(s.db, node)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsertNode(run execer, node *graph.TreeNode) error {
	if node == nil || node.ID == "" {
		return fmt.Errorf("node must have an id")
	}
	meta, err := json.Marshal(node.Meta)
	if err != nil {
		return fmt.Errorf("failed to marshal node meta: %w", err)
	}
	query, args, err := sq.Insert("nodes").
		Columns("id", "path", "name", "type", "language", "size", "complexity", "meta").
		Values(node.ID, node.Path, node.Name, string(node.Type), node.Language, node.Size, node.Complexity, string(meta)).
		Suffix("ON CONFLICT(id) DO UPDATE SET path=excluded.path, name=excluded.name, type=excluded.type, language=excluded.language, size=excluded.size, complexity=excluded.complexity, meta=excluded.meta").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := run.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to upsert node %s: %w", node.ID, err)
	}
	return nil
}

// AddRelationship inserts one edge. Missing endpoints are an error, not a
// silent drop: the engine filters dangling edges before persisting, so a
// miss here means the caller skipped that step.
func (s *sqliteStore) AddRelationship(edge graph.DependencyEdge) error {
	for _, id := range []string{edge.From, edge.To} {
		var exists int
		err := sq.Select("1").From("nodes").Where(sq.Eq{"id": id}).
			RunWith(s.db).QueryRow().Scan(&exists)
		if err == sql.ErrNoRows {
			return fmt.Errorf("edge endpoint %q does not exist", id)
		}
		if err != nil {
			return fmt.Errorf("failed to check endpoint %q: %w", id, err)
		}
	}

	external := 0
	if edge.External {
		external = 1
	}
	query, args, err := sq.Insert("edges").
		Columns("from_id", "to_id", "kind", "weight", "line", "external").
		Values(edge.From, edge.To, string(edge.Kind), edge.Weight, edge.Line, external).
		Suffix("ON CONFLICT(from_id, to_id, kind) DO UPDATE SET weight=excluded.weight, line=excluded.line, external=excluded.external").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to insert edge %s->%s: %w", edge.From, edge.To, err)
	}
	return nil
}

// BatchCreateNodes writes all nodes in one transaction.
func (s *sqliteStore) BatchCreateNodes(nodes []*graph.TreeNode) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	for _, node := range nodes {
		if err := upsertNode(tx, node); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WriteResult persists a complete integrated result: all nodes in one
// batch, then every edge.
func WriteResult(store GraphStore, result *graph.IntegratedResult) error {
	if result == nil || result.Tree == nil {
		return fmt.Errorf("result cannot be nil")
	}
	nodes := make([]*graph.TreeNode, 0, len(result.Tree.Nodes))
	for _, node := range result.Tree.Nodes {
		nodes = append(nodes, node)
	}
	if err := store.BatchCreateNodes(nodes); err != nil {
		return err
	}
	for _, edge := range result.Tree.Edges {
		if err := store.AddRelationship(edge); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection if owned by this store.
func (s *sqliteStore) Close() error {
	if !s.ownsDB {
		return nil
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
