// Package cache holds per-file extraction results keyed by content hash,
// so unchanged files skip re-extraction on incremental and watch runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"

	"semgraph/internal/extract"
)

// DefaultCapacity bounds the number of cached file results.
const DefaultCapacity = 10_000

// ExtractionCache caches FileResults keyed by (path, content hash). A file
// whose content changed gets a new key, so stale entries age out under the
// capacity bound instead of being invalidated explicitly.
type ExtractionCache struct {
	cache otter.Cache[string, *extract.FileResult]
}

// New creates an extraction cache with the given capacity. Capacity <= 0
// falls back to DefaultCapacity.
func New(capacity int) (*ExtractionCache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := otter.MustBuilder[string, *extract.FileResult](capacity).
		CollectStats().
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build cache: %w", err)
	}
	return &ExtractionCache{cache: c}, nil
}

// Key derives the cache key for a file path and its current content.
func Key(path string, content []byte) string {
	sum := sha256.Sum256(content)
	return path + "@" + hex.EncodeToString(sum[:8])
}

// Get returns the cached result for the key, if present.
func (c *ExtractionCache) Get(key string) (*extract.FileResult, bool) {
	return c.cache.Get(key)
}

// Put stores a result under the key.
func (c *ExtractionCache) Put(key string, result *extract.FileResult) {
	c.cache.Set(key, result)
}

// Invalidate removes the entry for the key.
func (c *ExtractionCache) Invalidate(key string) {
	c.cache.Delete(key)
}

// Stats reports hit and miss counts since creation.
func (c *ExtractionCache) Stats() (hits, misses int64) {
	stats := c.cache.Stats()
	return stats.Hits(), stats.Misses()
}

// Close releases the cache's internal resources.
func (c *ExtractionCache) Close() {
	c.cache.Close()
}
