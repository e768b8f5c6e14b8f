package resolve

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/huangsam/impacted/internal/contract"
	"github.com/zeebo/xxh3"
)

// currentCacheVersion defines the version of the cached import lists.
// Bump it whenever ParseImports changes what it extracts.
const currentCacheVersion = 1

// memoryEntries bounds the in-process layer.
const memoryEntries = 4096

// importCache memoizes ParseImports by content hash. An LRU sits in front of
// an optional persistent store.
type importCache struct {
	mem   *lru.Cache[string, []string]
	store contract.CacheStore
}

func newImportCache(store contract.CacheStore) *importCache {
	mem, err := lru.New[string, []string](memoryEntries)
	if err != nil {
		// Only a non-positive size fails
		panic(err)
	}
	return &importCache{mem: mem, store: store}
}

// cacheKey combines the grammar-selecting extension with the content hash.
func cacheKey(path string, content []byte) string {
	return fmt.Sprintf("imports:%s:%016x", filepath.Ext(path), xxh3.Hash(content))
}

// get returns the cached import list for key, if present and current.
func (c *importCache) get(key string) ([]string, bool) {
	if specs, ok := c.mem.Get(key); ok {
		return specs, true
	}
	if c.store == nil {
		return nil, false
	}
	data, version, _, err := c.store.Get(key)
	if err != nil || version != currentCacheVersion {
		return nil, false // Cache miss
	}
	var specs []string
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, false
	}
	c.mem.Add(key, specs)
	return specs, true
}

// put stores an import list in both layers. Persistent failures are returned
// so the caller can log them; the memory layer is always updated.
func (c *importCache) put(key string, specs []string) error {
	c.mem.Add(key, specs)
	if c.store == nil {
		return nil
	}
	data, err := json.Marshal(specs)
	if err != nil {
		return err
	}
	return c.store.Set(key, data, currentCacheVersion, time.Now().Unix())
}
