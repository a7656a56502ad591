package identify

import (
	"crypto/sha256"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ploverbay/iconsense/internal/extract"
)

// ResultCache memoizes per-extractor results by text hash so repeated
// analysis of the same text within a process does not recompute. Injected
// into the orchestrator so tests get a fresh, isolated cache per case.
type ResultCache interface {
	Get(key string) (*extract.Result, bool)
	Add(key string, res *extract.Result)
}

// DefaultCacheSize bounds the default result cache.
const DefaultCacheSize = 256

// LRUCache is a bounded ResultCache.
type LRUCache struct {
	inner *lru.Cache[string, *extract.Result]
}

// NewLRUCache creates a bounded result cache. Size must be positive.
func NewLRUCache(size int) (*LRUCache, error) {
	inner, err := lru.New[string, *extract.Result](size)
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}
	return &LRUCache{inner: inner}, nil
}

func (c *LRUCache) Get(key string) (*extract.Result, bool) {
	return c.inner.Get(key)
}

func (c *LRUCache) Add(key string, res *extract.Result) {
	c.inner.Add(key, res)
}

// cacheKey derives the memoization key for one (extractor, text) pair.
func cacheKey(extractorName, text string) string {
	h := sha256.New()
	h.Write([]byte(extractorName))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return fmt.Sprintf("%x", h.Sum(nil))
}
