package adapter

import (
	lru "github.com/hashicorp/golang-lru/v2"

	m "github.com/mouse-blink/loom/internal/model"
)

// extractCacheSize bounds how many files keep a cached extraction.
const extractCacheSize = 1024

// ExtractCache memoizes per-file extraction results between watch passes.
// Keys pair the path with its content hash, so an edited file misses
// naturally and stale entries age out. Only clean extractions are cached;
// files with diagnostics are re-extracted every pass. A nil cache is valid
// and never hits.
type ExtractCache struct {
	entries *lru.Cache[string, []m.Directive]
}

// NewExtractCache constructs an empty cache.
func NewExtractCache() (*ExtractCache, error) {
	entries, err := lru.New[string, []m.Directive](extractCacheSize)
	if err != nil {
		return nil, err
	}

	return &ExtractCache{entries: entries}, nil
}

// Get returns the cached directives for the file state, if present.
func (c *ExtractCache) Get(path m.Path, hash string) ([]m.Directive, bool) {
	if c == nil {
		return nil, false
	}

	return c.entries.Get(cacheKey(path, hash))
}

// Put records the directives extracted from the file state.
func (c *ExtractCache) Put(path m.Path, hash string, directives []m.Directive) {
	if c == nil {
		return
	}

	c.entries.Add(cacheKey(path, hash), directives)
}

func cacheKey(path m.Path, hash string) string {
	return string(path) + "\x00" + hash
}
