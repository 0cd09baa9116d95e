package cache

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// entry wraps a cached quote with expiry and insertion order tracking.
type entry struct {
	price     decimal.Decimal
	expiry    time.Time
	insertIdx int64
}

// QuoteCache holds recent upstream quotes keyed by symbol so bursts of
// lookups for the same symbol share one upstream call.
// Thread-safe with sync.RWMutex.
type QuoteCache struct {
	mu         sync.RWMutex
	items      map[string]entry
	ttl        time.Duration
	maxEntries int
	nextIdx    int64
}

// New creates a new QuoteCache with the given TTL and max entry count.
func New(ttl time.Duration, maxEntries int) *QuoteCache {
	return &QuoteCache{
		items:      make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Get returns a cached quote if found and not expired.
func (c *QuoteCache) Get(symbol string) (decimal.Decimal, bool) {
	c.mu.RLock()
	e, ok := c.items[symbol]
	c.mu.RUnlock()

	if !ok {
		return decimal.Zero, false
	}

	if time.Now().After(e.expiry) {
		c.mu.Lock()
		if e2, ok2 := c.items[symbol]; ok2 && time.Now().After(e2.expiry) {
			delete(c.items, symbol)
		}
		c.mu.Unlock()
		return decimal.Zero, false
	}

	return e.price, true
}

// Set stores a quote. Evicts the oldest entry if at capacity.
func (c *QuoteCache) Set(symbol string, price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{
		price:     price,
		expiry:    time.Now().Add(c.ttl),
		insertIdx: c.nextIdx,
	}
	c.nextIdx++

	if _, exists := c.items[symbol]; exists {
		c.items[symbol] = e
		return
	}

	if len(c.items) >= c.maxEntries {
		c.evictOldest()
	}

	c.items[symbol] = e
}

// Len returns the number of entries, expired ones included.
func (c *QuoteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// evictOldest removes the entry with the lowest insertIdx. Must be called with mu held.
func (c *QuoteCache) evictOldest() {
	var oldestKey string
	var oldestIdx int64 = -1

	for key, e := range c.items {
		if oldestIdx == -1 || e.insertIdx < oldestIdx {
			oldestIdx = e.insertIdx
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(c.items, oldestKey)
	}
}
