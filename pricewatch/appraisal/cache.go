package appraisal

import (
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// ResultCache memoizes resolved market values for a short window so repeat
// lookups inside one batch run, or from interactive compare calls, do not
// re-hit the source tiers. Entries expire by wall clock, not LRU pressure,
// although the LRU bound caps worst-case memory.
type ResultCache struct {
	cache *lru.Cache
	ttl   time.Duration
	log   *slog.Logger

	now func() time.Time
}

type cachedResult struct {
	value    ResolvedValue
	storedAt time.Time
}

func NewResultCache(size int, ttl time.Duration, log *slog.Logger) (*ResultCache, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &ResultCache{
		cache: cache,
		ttl:   ttl,
		log:   log,
		now:   time.Now,
	}, nil
}

func (c *ResultCache) Get(key string) (ResolvedValue, bool) {
	raw, ok := c.cache.Get(key)
	if !ok {
		return ResolvedValue{}, false
	}
	entry := raw.(cachedResult)
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.cache.Remove(key)
		c.log.Debug("Appraisal cache entry expired", slog.String("key", key))
		return ResolvedValue{}, false
	}
	return entry.value, true
}

func (c *ResultCache) Put(key string, value ResolvedValue) {
	c.cache.Add(key, cachedResult{
		value:    value,
		storedAt: c.now(),
	})
}

func (c *ResultCache) Len() int {
	return c.cache.Len()
}
