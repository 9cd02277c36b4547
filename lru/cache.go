// Package lru provides the in-memory domain result cache backed by a
// fixed-capacity LRU.
package lru

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"policyscout"
)

// DefaultCapacity bounds the number of domains held in memory.
const DefaultCapacity = 100

// Ensure Cache implements policyscout.ResultCache at compile time.
var _ policyscout.ResultCache = (*Cache)(nil)

// Cache stores discovery results per domain with TTL expiry on read. The
// underlying LRU handles capacity eviction; expired entries are evicted
// lazily when looked up. Cache is safe for concurrent use.
type Cache struct {
	entries *lru.Cache[string, *policyscout.CacheEntry]
	now     func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a new Cache holding at most capacity domains. A
// non-positive capacity falls back to DefaultCapacity.
func NewCache(capacity int, opts ...Option) (*Cache, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	entries, err := lru.New[string, *policyscout.CacheEntry](capacity)
	if err != nil {
		return nil, policyscout.Errorf(policyscout.EINTERNAL, "create cache: %v", err)
	}

	c := &Cache{entries: entries, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get returns the cached entry for domain, if present and unexpired.
// Expired entries are removed on the way out.
func (c *Cache) Get(domain string) (*policyscout.CacheEntry, bool) {
	entry, ok := c.entries.Get(domain)
	if !ok {
		return nil, false
	}
	if entry.Expired(c.now()) {
		c.entries.Remove(domain)
		return nil, false
	}
	return entry, true
}

// Put stores an entry for a domain, displacing the least recently used
// domain when the cache is full.
func (c *Cache) Put(domain string, entry *policyscout.CacheEntry) {
	c.entries.Add(domain, entry)
}

// Len returns the number of cached domains, including entries that have
// expired but not yet been looked up.
func (c *Cache) Len() int {
	return c.entries.Len()
}
