package mock

import "policyscout"

var _ policyscout.ResultCache = (*ResultCache)(nil)

// ResultCache is a mock implementation of policyscout.ResultCache.
type ResultCache struct {
	GetFn func(domain string) (*policyscout.CacheEntry, bool)
	PutFn func(domain string, entry *policyscout.CacheEntry)
}

func (c *ResultCache) Get(domain string) (*policyscout.CacheEntry, bool) {
	return c.GetFn(domain)
}

func (c *ResultCache) Put(domain string, entry *policyscout.CacheEntry) {
	c.PutFn(domain, entry)
}
