package upstream

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL bounds how long an upstream response is served from memory.
const DefaultTTL = 5 * time.Minute

type (
	// Cache is a process-local TTL map of upstream payloads. Expired entries are evicted lazily on read.
	// Payloads are shared between readers and must not be mutated.
	Cache struct {
		mu      sync.Mutex
		ttl     time.Duration
		entries map[string]cacheEntry
		now     func() time.Time

		hits   uint64
		misses uint64
	}

	cacheEntry struct {
		payload   interface{}
		fetchedAt time.Time
	}

	CacheStats struct {
		Entries int      `json:"entries"`
		Keys    []string `json:"keys"`
		TTL     string   `json:"ttl"`
		Hits    uint64   `json:"hits"`
		Misses  uint64   `json:"misses"`
	}
)

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl, entries: make(map[string]cacheEntry), now: time.Now}
}

// Get returns the payload cached under key, unless it is older than the TTL.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().Sub(e.fetchedAt) > c.ttl {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		atomic.AddUint64(&c.misses, 1)
		return nil, false
	}
	atomic.AddUint64(&c.hits, 1)
	return e.payload, true
}

// Set replaces the entry under key; concurrent writers of the same key are last-write-wins.
func (c *Cache) Set(key string, v interface{}) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{payload: v, fetchedAt: c.now()}
	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.Unlock()

	sort.Strings(keys)
	return CacheStats{
		Entries: len(keys),
		Keys:    keys,
		TTL:     c.ttl.String(),
		Hits:    atomic.LoadUint64(&c.hits),
		Misses:  atomic.LoadUint64(&c.misses),
	}
}
