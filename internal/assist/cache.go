package assist

import (
	"sync"
	"time"
)

// DefaultCacheTTL bounds how long a generated answer may be served. Financial
// guidance goes stale slowly; a day keeps the provider quota quiet without
// serving ancient numbers.
const DefaultCacheTTL = 24 * time.Hour

// CacheStats is a point-in-time snapshot of cache effectiveness.
type CacheStats struct {
	TotalEntries   int     `json:"total_entries"`
	Hits           int     `json:"hits"`
	Misses         int     `json:"misses"`
	HitRatePercent float64 `json:"hit_rate_percent"`
}

type cacheEntry struct {
	response  string
	createdAt time.Time
	expiresAt time.Time
}

// ResponseCache stores generated answers keyed by DeriveKey. Entries expire
// after a fixed TTL and are evicted lazily at read time. The cache is
// unbounded beyond TTL expiry; entries are small text blobs and the TTL bounds
// growth. A size-bounded eviction policy (LRU) is the extension point if that
// ever stops being true.
//
// Whether a lookup is allowed at all (first-turn-only caching) is the
// caller's policy, enforced by Service, not here.
type ResponseCache struct {
	mu           sync.Mutex
	entries      map[string]cacheEntry
	ttl          time.Duration
	profitBucket int
	hits         int
	misses       int

	now func() time.Time // overridable in tests
}

// NewResponseCache creates an empty cache. ttl <= 0 uses DefaultCacheTTL;
// profitBucket <= 0 uses DefaultProfitBucket.
func NewResponseCache(ttl time.Duration, profitBucket int) *ResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if profitBucket <= 0 {
		profitBucket = DefaultProfitBucket
	}
	return &ResponseCache{
		entries:      make(map[string]cacheEntry),
		ttl:          ttl,
		profitBucket: profitBucket,
		now:          time.Now,
	}
}

// Get returns the cached answer for the query/context pair, if present and
// not expired. An expired entry is evicted and counted as a miss.
func (c *ResponseCache) Get(query string, data *FinancialContext) (string, bool) {
	key := DeriveKey(query, data, c.profitBucket)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if ok && c.now().Before(entry.expiresAt) {
		c.hits++
		return entry.response, true
	}
	if ok {
		delete(c.entries, key)
	}
	c.misses++
	return "", false
}

// Set stores an answer under the derived key. Last write wins; there is no
// merge.
func (c *ResponseCache) Set(query, response string, data *FinancialContext) {
	key := DeriveKey(query, data, c.profitBucket)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = cacheEntry{
		response:  response,
		createdAt: now,
		expiresAt: now.Add(c.ttl),
	}
}

// Stats returns hit/miss counters and the current entry count. Hit rate is 0
// when no lookups have been recorded yet.
func (c *ResponseCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	var rate float64
	if total > 0 {
		rate = float64(c.hits) / float64(total) * 100
	}
	return CacheStats{
		TotalEntries:   len(c.entries),
		Hits:           c.hits,
		Misses:         c.misses,
		HitRatePercent: rate,
	}
}

// Clear drops all entries and resets the counters. Administrative operation,
// not part of normal request flow.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
	c.hits = 0
	c.misses = 0
}
