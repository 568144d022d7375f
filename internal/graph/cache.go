// # internal/graph/cache.go
package graph

import "sync"

// Cache holds built graphs keyed by scan root, validated by fingerprint.
// Graph lifetime is owned here, explicitly: a hit requires the caller's
// fresh fingerprint to match, and invalidation is a deliberate call (the
// watcher's change callback), never a side effect of a lookup.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Graph
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Graph)}
}

// Get returns the cached graph for root when its fingerprint still matches.
func (c *Cache) Get(root, fingerprint string) (*Graph, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.entries[root]
	if !ok || g.Fingerprint() != fingerprint {
		return nil, false
	}
	return g, true
}

// Put stores the graph under its own root. An older graph for the same root
// is dropped from the cache but stays valid for in-flight readers.
func (c *Cache) Put(g *Graph) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[g.Root()] = g
}

func (c *Cache) Invalidate(root string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, root)
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
