package prices

import (
	"sync"
	"time"
)

const cacheTTL = 30 * time.Second

type cacheEntry struct {
	quote     Quote
	expiresAt time.Time
}

type quoteCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func newQuoteCache() *quoteCache {
	return &quoteCache{
		entries: make(map[string]cacheEntry),
	}
}

func (c *quoteCache) get(symbol string) (Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[symbol]
	if !ok || time.Now().After(entry.expiresAt) {
		return Quote{}, false
	}
	return entry.quote, true
}

func (c *quoteCache) set(symbol string, quote Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[symbol] = cacheEntry{
		quote:     quote,
		expiresAt: time.Now().Add(cacheTTL),
	}
}
