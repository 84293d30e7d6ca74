package quote

import (
	"strings"
	"sync"
	"time"
)

// Cache keeps the last quote per symbol for a fixed TTL. Expiry is checked
// and stale entries are dropped under the same lock as the read, so a
// reader never sees an entry that expired before the call.
type Cache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
	ttl  time.Duration
	now  func() time.Time
}

type cacheEntry struct {
	quote    Quote
	storedAt time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Cache{data: make(map[string]cacheEntry), ttl: ttl, now: time.Now}
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (c *Cache) Get(symbol string) (Quote, bool) {
	sym := normalizeSymbol(symbol)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[sym]
	if !ok {
		return Quote{}, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.data, sym)
		return Quote{}, false
	}
	return e.quote, true
}

// Set stores q and purges every expired entry.
func (c *Cache) Set(q Quote) {
	sym := normalizeSymbol(q.Symbol)
	if sym == "" {
		return
	}
	q.Symbol = sym
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.data {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.data, k)
		}
	}
	c.data[sym] = cacheEntry{quote: q, storedAt: now}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
