package artifact

import (
	"sync"

	"github.com/opencontainers/go-digest"
)

// Cache stores built artifacts keyed by source digest. A hit lets a builder
// skip rebuilding an identical source tree.
type Cache struct {
	mu      sync.RWMutex
	entries map[digest.Digest]*Artifact
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[digest.Digest]*Artifact)}
}

// Get returns the cached artifact for the digest, or nil.
func (c *Cache) Get(id digest.Digest) *Artifact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[id]
}

// Put stores an artifact under its digest.
func (c *Cache) Put(a *Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[a.ID] = a
}

// Remove drops one entry, used on explicit cleanup.
func (c *Cache) Remove(id digest.Digest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Len returns the number of cached artifacts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
