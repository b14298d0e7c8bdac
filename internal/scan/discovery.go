// Package scan discovers source files for analysis with glob-pattern
// include and ignore rules.
package scan

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"

	"semgraph/internal/extract"
	"semgraph/internal/graph"
)

// compiledPattern holds both the pattern string and compiled glob.
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// FileDiscovery walks a directory tree and emits ordered file records.
type FileDiscovery struct {
	rootDir         string
	includePatterns []compiledPattern
	ignorePatterns  []compiledPattern
}

// NewFileDiscovery creates a discovery instance for rootDir.
func NewFileDiscovery(rootDir string, includePatterns, ignorePatterns []string) (*FileDiscovery, error) {
	fd := &FileDiscovery{rootDir: rootDir}

	for _, pattern := range includePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.includePatterns = append(fd.includePatterns, compiledPattern{pattern: pattern, glob: g})
	}
	for _, pattern := range ignorePatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		fd.ignorePatterns = append(fd.ignorePatterns, compiledPattern{pattern: pattern, glob: g})
	}

	return fd, nil
}

// Discover walks the tree and returns matching files sorted by relative
// path, so downstream passes see a deterministic order.
func (fd *FileDiscovery) Discover() ([]graph.FileRecord, error) {
	var files []graph.FileRecord

	err := filepath.Walk(fd.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Prune ignored directories early.
			relPath, relErr := filepath.Rel(fd.rootDir, path)
			if relErr == nil && relPath != "." && fd.shouldIgnore(filepath.ToSlash(relPath)+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(fd.rootDir, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if fd.shouldIgnore(relPath) {
			return nil
		}
		if !fd.matchesInclude(relPath) {
			return nil
		}

		files = append(files, graph.FileRecord{
			Path:         path,
			RelativePath: relPath,
			Language:     extract.DetectLanguage(relPath),
			Size:         info.Size(),
			Type:         "file",
			ModTime:      info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})
	return files, nil
}

func (fd *FileDiscovery) shouldIgnore(relPath string) bool {
	for _, p := range fd.ignorePatterns {
		if p.glob.Match(relPath) {
			return true
		}
	}
	return false
}

func (fd *FileDiscovery) matchesInclude(relPath string) bool {
	for _, p := range fd.includePatterns {
		if p.glob.Match(relPath) {
			return true
		}
	}
	return false
}
