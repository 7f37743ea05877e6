package news

import (
	"sync"
	"time"

	"asx-auto-trader/internal/types"
)

// itemCache keeps collected items briefly so back-to-back cycles do not
// hammer the feed.
type itemCache struct {
	mu   sync.RWMutex
	data map[string]*cacheEntry
	ttl  time.Duration
}

type cacheEntry struct {
	items   []types.NewsItem
	fetched time.Time
}

func newItemCache(ttl time.Duration) *itemCache {
	cache := &itemCache{
		data: make(map[string]*cacheEntry),
		ttl:  ttl,
	}

	go cache.cleanupLoop()

	return cache
}

func (c *itemCache) get(key string) ([]types.NewsItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.data[key]
	if !exists {
		return nil, false
	}
	if time.Since(entry.fetched) > c.ttl {
		return nil, false
	}
	return entry.items, true
}

func (c *itemCache) set(key string, items []types.NewsItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = &cacheEntry{
		items:   items,
		fetched: time.Now(),
	}
}

func (c *itemCache) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}

func (c *itemCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.data {
		if now.Sub(entry.fetched) > c.ttl {
			delete(c.data, key)
		}
	}
}
