package marketdata

import (
	"sync"
	"time"

	"asx-auto-trader/internal/types"
)

type cachedQuote struct {
	quote   types.MarketQuote
	fetched time.Time
}

// quoteCache is a TTL cache keyed by symbol. Quote traffic is bursty (one
// batch per cycle) so there is no background sweeper; stale entries are
// overwritten on the next set.
type quoteCache struct {
	mu   sync.RWMutex
	data map[string]cachedQuote
	ttl  time.Duration
}

func newQuoteCache(ttl time.Duration) *quoteCache {
	return &quoteCache{
		data: make(map[string]cachedQuote),
		ttl:  ttl,
	}
}

func (c *quoteCache) get(symbol string) (types.MarketQuote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[symbol]
	if !ok || time.Since(entry.fetched) > c.ttl {
		return types.MarketQuote{}, false
	}
	return entry.quote, true
}

func (c *quoteCache) set(symbol string, q types.MarketQuote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[symbol] = cachedQuote{quote: q, fetched: time.Now()}
}
