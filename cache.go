package policyscout

import "time"

// CacheEntry holds the best prior discovery result for a domain.
// Owned exclusively by the cache; treated as immutable once stored.
type CacheEntry struct {
	Domain    string
	Result    *Result
	CreatedAt time.Time
	TTL       time.Duration
}

// Expired reports whether the entry is stale at the given instant.
func (e *CacheEntry) Expired(now time.Time) bool {
	return now.Sub(e.CreatedAt) >= e.TTL
}

// ResultCache is a bounded, time-limited store mapping a normalized domain
// to its best prior discovery result. Implementations must be safe for
// concurrent use; stale entries are treated as absent and evicted on read.
type ResultCache interface {
	Get(domain string) (*CacheEntry, bool)
	Put(domain string, entry *CacheEntry)
}
