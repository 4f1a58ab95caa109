// Package cache provides a typed TTL cache for modelmux.
//
// The cache is a thin generic wrapper over Ristretto. Entries expire after
// a fixed per-cache TTL and can be invalidated explicitly, which keeps
// staleness bounds auditable: a value read from the cache is never older
// than the TTL, and never survives an Invalidate.
//
// All operations are safe for concurrent use. Reads never wait on writers.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog"
)

// Default sizing for the underlying Ristretto cache. Keys are small
// (organization and provider identifiers), so counters are generous.
const (
	defaultNumCounters = 100_000
	defaultMaxCost     = 10_000
	defaultBufferItems = 64
)

// TTL is a typed cache whose entries expire after a fixed duration.
type TTL[V any] struct {
	cache *ristretto.Cache[string, V]
	ttl   time.Duration
	log   zerolog.Logger
}

// NewTTL creates a TTL cache with the given entry lifetime.
func NewTTL[V any](ttl time.Duration, log zerolog.Logger) (*TTL[V], error) {
	rc, err := ristretto.NewCache(&ristretto.Config[string, V]{
		NumCounters: defaultNumCounters,
		MaxCost:     defaultMaxCost,
		BufferItems: defaultBufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &TTL[V]{
		cache: rc,
		ttl:   ttl,
		log:   log,
	}, nil
}

// Get retrieves a value. The second return is false on a miss or after
// the entry's TTL has elapsed.
func (c *TTL[V]) Get(key string) (V, bool) {
	v, found := c.cache.Get(key)
	c.log.Debug().Str("key", key).Bool("hit", found).Msg("cache get")
	return v, found
}

// Set stores a value under the cache's TTL. The write is flushed before
// returning so that a subsequent Get observes it.
func (c *TTL[V]) Set(key string, value V) {
	c.cache.SetWithTTL(key, value, 1, c.ttl)
	c.cache.Wait()
	c.log.Debug().Str("key", key).Dur("ttl", c.ttl).Msg("cache set")
}

// Invalidate removes a key immediately. Idempotent.
func (c *TTL[V]) Invalidate(key string) {
	c.cache.Del(key)
	c.log.Debug().Str("key", key).Msg("cache invalidate")
}

// TTLDuration returns the configured entry lifetime.
func (c *TTL[V]) TTLDuration() time.Duration {
	return c.ttl
}

// Hits returns the number of cache hits since creation.
func (c *TTL[V]) Hits() uint64 { return c.cache.Metrics.Hits() }

// Misses returns the number of cache misses since creation.
func (c *TTL[V]) Misses() uint64 { return c.cache.Metrics.Misses() }

// Close releases the underlying cache. Operations after Close are invalid.
func (c *TTL[V]) Close() {
	c.cache.Wait()
	c.cache.Close()
	c.log.Debug().Msg("cache closed")
}
