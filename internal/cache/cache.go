// Package cache provides the in-memory result caches for the engine:
// query-rewrite, re-ranking, and final-answer tiers.
//
// Eviction is an approximation of LRU: when a write would exceed the
// configured capacity, the oldest 20% of entries by timestamp are removed
// in one pass. This is deliberately not strict LRU; reads do not reorder
// entries. Each cache owns its own mutex and is injected into the engine,
// never held as package-level state.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultMaxEntries is used when a non-positive capacity is given.
const DefaultMaxEntries = 500

// evictFraction is the share of entries dropped per cleanup pass.
const evictFraction = 0.2

type entry[V any] struct {
	value    V
	storedAt time.Time
	seq      uint64 // insertion order, breaks timestamp ties deterministically
}

// Cache is a bounded, timestamped key-value cache.
// All operations are guarded by a single mutex.
type Cache[V any] struct {
	name       string
	maxEntries int

	mu        sync.Mutex
	entries   map[string]entry[V]
	nextSeq   uint64
	hits      uint64
	misses    uint64
	evictions uint64
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Name       string `json:"name"`
	Size       int    `json:"size"`
	MaxEntries int    `json:"maxEntries"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Evictions  uint64 `json:"evictions"`
}

// New creates a cache with the given name and capacity.
func New[V any](name string, maxEntries int) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache[V]{
		name:       name,
		maxEntries: maxEntries,
		entries:    make(map[string]entry[V]),
	}
}

// Get returns the cached value for key and whether it was present.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	return e.value, true
}

// Set stores value under key, evicting the oldest 20% of entries first
// if the write would exceed capacity.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldest()
	}

	c.entries[key] = entry[V]{
		value:    value,
		storedAt: time.Now(),
		seq:      c.nextSeq,
	}
	c.nextSeq++
}

// evictOldest removes the oldest 20% of entries (at least one) in one
// pass. Caller must hold the mutex.
func (c *Cache[V]) evictOldest() {
	n := int(float64(c.maxEntries) * evictFraction)
	if n < 1 {
		n = 1
	}

	// Selection by insertion sequence; timestamps follow sequence order.
	type victim struct {
		key string
		seq uint64
	}
	victims := make([]victim, 0, n)
	for k, e := range c.entries {
		if len(victims) < n {
			victims = append(victims, victim{k, e.seq})
			continue
		}
		// Replace the newest victim if this entry is older.
		maxIdx := 0
		for i := 1; i < len(victims); i++ {
			if victims[i].seq > victims[maxIdx].seq {
				maxIdx = i
			}
		}
		if e.seq < victims[maxIdx].seq {
			victims[maxIdx] = victim{k, e.seq}
		}
	}

	for _, v := range victims {
		delete(c.entries, v.key)
		c.evictions++
	}

	slog.Debug("cache_evicted",
		slog.String("cache", c.name),
		slog.Int("removed", len(victims)),
		slog.Int("remaining", len(c.entries)))
}

// Len returns the current entry count.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge removes all entries and resets counters.
func (c *Cache[V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
	c.hits = 0
	c.misses = 0
	c.evictions = 0
}

// StatsSnapshot returns current counters.
func (c *Cache[V]) StatsSnapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Name:       c.name,
		Size:       len(c.entries),
		MaxEntries: c.maxEntries,
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
	}
}
