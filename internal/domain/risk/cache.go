// Package risk - per-attribute freshness cache.
//
// ─────────────────────────────────────────────────────────────────────────────
// The cache remembers, per lookup attribute, when risk signals were last
// checked and which validated alerts came out of that check. Freshness is
// decided purely against the event time carried on the incoming entity event,
// never against the wall clock, so replaying a historical stream yields the
// same hit/miss decisions as the live run did.
// ─────────────────────────────────────────────────────────────────────────────
package risk

import (
	"hash/fnv"
	"sync"
	"time"
)

const cacheShardCount = 32

type cacheShard struct {
	mu      sync.RWMutex
	entries map[string]CacheEntry
}

// Cache is a sharded in-memory map from lookup attribute to CacheEntry.
// Entries are never evicted; the working set is bounded by the number of
// distinct attributes in the entity universe.
type Cache struct {
	ttl    time.Duration
	shards [cacheShardCount]*cacheShard
}

// NewCache builds a cache with the given freshness window. A zero or negative
// ttl means every lookup is stale, which effectively disables caching.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{ttl: ttl}
	for i := range c.shards {
		c.shards[i] = &cacheShard{entries: make(map[string]CacheEntry)}
	}
	return c
}

// TTL returns the configured freshness window.
func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) shardFor(key string) *cacheShard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return c.shards[h.Sum32()%cacheShardCount]
}

// Lookup returns the entry stored for key, whether it is fresh relative to
// eventTime, and whether an entry exists at all. An entry is fresh iff
// eventTime minus its CheckedAt is strictly less than the TTL; an event
// arriving exactly TTL after the check sees a stale entry.
func (c *Cache) Lookup(key string, eventTime time.Time) (CacheEntry, bool, bool) {
	s := c.shardFor(key)
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return CacheEntry{}, false, false
	}
	fresh := c.ttl > 0 && eventTime.Sub(entry.CheckedAt) < c.ttl
	return entry, fresh, true
}

// Store records the outcome of a signal check. The checkedAt stamp is the
// event time that triggered the cycle. If a newer check already landed for
// the same key the call is a no-op, keeping CheckedAt monotone per key.
func (c *Cache) Store(key string, alerts []ValidatedAlert, checkedAt time.Time) {
	s := c.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[key]; ok && existing.CheckedAt.After(checkedAt) {
		return
	}
	s.entries[key] = CacheEntry{CheckedAt: checkedAt, Alerts: alerts}
}

// Len reports the number of cached attributes.
func (c *Cache) Len() int {
	n := 0
	for _, s := range c.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

// Snapshot copies the full cache contents, for persistence.
func (c *Cache) Snapshot() map[string]CacheEntry {
	out := make(map[string]CacheEntry)
	for _, s := range c.shards {
		s.mu.RLock()
		for k, v := range s.entries {
			out[k] = v
		}
		s.mu.RUnlock()
	}
	return out
}

// Restore merges a snapshot into the cache, keeping whichever entry per key
// has the later CheckedAt. Used to warm-start from a persisted snapshot.
func (c *Cache) Restore(entries map[string]CacheEntry) {
	for k, v := range entries {
		c.Store(k, v.Alerts, v.CheckedAt)
	}
}

//Personal.AI order the ending
