package graph

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// GraphFileName is the name of the persisted graph file.
	GraphFileName = "semantic-graph.json"
	// GraphVersion is the current version of the graph format.
	GraphVersion = "1.0"
)

// Storage handles reading and writing the integrated result to disk.
type Storage interface {
	// Load loads the result from disk. Returns nil if no file exists.
	Load() (*IntegratedResult, error)

	// Save saves the result to disk using an atomic write pattern.
	Save(result *IntegratedResult) error

	// Exists checks if the graph file exists.
	Exists() bool
}

// storage implements Storage with atomic write support.
type storage struct {
	graphDir string
}

// NewStorage creates graph storage under graphDir (.semgraph/graph).
func NewStorage(graphDir string) (Storage, error) {
	if err := os.MkdirAll(graphDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create graph directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(graphDir, ".tmp"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &storage{graphDir: graphDir}, nil
}

// Load loads the result from disk.
func (s *storage) Load() (*IntegratedResult, error) {
	filePath := s.graphFilePath()

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil // Not an error, just no graph yet
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	var result IntegratedResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse graph JSON: %w", err)
	}
	return &result, nil
}

// Save saves the result to disk: write to a temp file, then rename.
// POSIX guarantees the rename is atomic, so readers never see a torn file.
func (s *storage) Save(result *IntegratedResult) error {
	result.Metadata.Version = GraphVersion
	result.Metadata.GeneratedAt = time.Now()
	if result.Tree != nil {
		result.Metadata.NodeCount = len(result.Tree.Nodes)
		result.Metadata.EdgeCount = len(result.Tree.Edges)
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal graph data: %w", err)
	}

	tempPath := filepath.Join(s.graphDir, ".tmp", GraphFileName)
	if err := os.WriteFile(tempPath, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp graph file: %w", err)
	}

	if err := os.Rename(tempPath, s.graphFilePath()); err != nil {
		return fmt.Errorf("failed to rename temp graph file: %w", err)
	}
	return nil
}

// Exists checks if the graph file exists.
func (s *storage) Exists() bool {
	_, err := os.Stat(s.graphFilePath())
	return err == nil
}

func (s *storage) graphFilePath() string {
	return filepath.Join(s.graphDir, GraphFileName)
}
