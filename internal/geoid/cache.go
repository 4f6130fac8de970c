package geoid

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of memoized undulations kept per provider
const DefaultCacheSize = 1000

// cacheResolution is the coordinate rounding applied to cache keys (1e-6 degree)
const cacheResolution = 1e6

type cacheKey struct {
	lat, lon int64
}

func keyFor(lat, lon float64) cacheKey {
	return cacheKey{
		lat: int64(math.Round(lat * cacheResolution)),
		lon: int64(math.Round(lon * cacheResolution)),
	}
}

// coords returns the rounded coordinates a key stands for
func (k cacheKey) coords() (float64, float64) {
	return float64(k.lat) / cacheResolution, float64(k.lon) / cacheResolution
}

// UndulationCache is a bounded LRU of undulation lookups. Safe for concurrent use.
type UndulationCache struct {
	lru *lru.Cache[cacheKey, float64]
}

// NewUndulationCache creates a cache holding up to size entries
func NewUndulationCache(size int) *UndulationCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[cacheKey, float64](size)
	if err != nil {
		// only reachable with size <= 0
		panic(err)
	}
	return &UndulationCache{lru: c}
}

func (c *UndulationCache) get(k cacheKey) (float64, bool) {
	return c.lru.Get(k)
}

func (c *UndulationCache) add(k cacheKey, v float64) {
	c.lru.Add(k, v)
}

// Len returns the number of cached entries
func (c *UndulationCache) Len() int {
	return c.lru.Len()
}

// Purge drops every entry
func (c *UndulationCache) Purge() {
	c.lru.Purge()
}
