package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/haukened/rr-psl/internal/psl/domain"
	"github.com/haukened/rr-psl/internal/psl/repos/lookup"
)

// resultCache is an LRU-backed implementation of lookup.ResultCache.
// It tracks basic metrics: hits, misses, and evictions.
type resultCache struct {
	lru       *lru.Cache[string, domain.Resolution]
	capacity  int
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// disabledCache is a no-op ResultCache used when size <= 0.
type disabledCache struct{}

// New creates a ResultCache with the given capacity. If size <= 0, a
// disabled no-op cache is returned that always misses and tracks no metrics.
func New(size int) (lookup.ResultCache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}

	rc := &resultCache{capacity: size}
	// NewWithEvict observes evictions, including Purge-induced ones.
	cache, err := lru.NewWithEvict(size, func(_ string, _ domain.Resolution) {
		rc.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	rc.lru = cache
	return rc, nil
}

func (c *resultCache) Get(host string) (domain.Resolution, bool) {
	if val, ok := c.lru.Get(host); ok {
		c.hits.Add(1)
		return val, true
	}
	c.misses.Add(1)
	return domain.Resolution{}, false
}

func (c *resultCache) Put(host string, res domain.Resolution) {
	c.lru.Add(host, res)
}

func (c *resultCache) Len() int { return c.lru.Len() }

// Purge clears all entries. Evictions are counted via the eviction callback.
func (c *resultCache) Purge() { c.lru.Purge() }

func (c *resultCache) Stats() lookup.CacheStats {
	return lookup.CacheStats{
		Capacity:  c.capacity,
		Size:      c.lru.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (d *disabledCache) Get(string) (domain.Resolution, bool) {
	return domain.Resolution{}, false
}

func (d *disabledCache) Put(string, domain.Resolution) {}

func (d *disabledCache) Len() int { return 0 }

func (d *disabledCache) Purge() {}

func (d *disabledCache) Stats() lookup.CacheStats { return lookup.CacheStats{} }

var _ lookup.ResultCache = (*resultCache)(nil)
var _ lookup.ResultCache = (*disabledCache)(nil)
