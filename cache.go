package folio

import (
	"sync"
	"time"
)

type cacheEntry struct {
	data    []byte
	expires time.Time
}

// documentCache holds raw document bodies for non-fresh reads. Entries are
// dropped when their TTL passes or when the document is written.
type documentCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	now     func() time.Time
}

func newDocumentCache(now func() time.Time) *documentCache {
	return &documentCache{
		entries: make(map[string]cacheEntry),
		now:     now,
	}
}

func (c *documentCache) get(name string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[name]
	if !ok || !c.now().Before(e.expires) {
		return nil, false
	}
	return e.data, true
}

func (c *documentCache) set(name string, data []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[name] = cacheEntry{data: data, expires: c.now().Add(ttl)}
}

func (c *documentCache) invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, name)
}
