// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jeranaias/assistroute/internal/router"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultTTL is how long a model classification stays valid.
	DefaultTTL = time.Minute

	// DefaultMaxEntries bounds memory when no limit is configured.
	DefaultMaxEntries = 10000
)

// =============================================================================
// TYPES
// =============================================================================

// Entry is a cached classification and the time it was stored.
type Entry struct {
	Classification router.QueryClassification
	CachedAt       time.Time
}

// Options configures a ClassificationCache.
type Options struct {
	// TTL is the entry lifetime. Zero or negative means DefaultTTL.
	TTL time.Duration

	// MaxEntries caps the number of entries; the least recently used entry
	// is evicted when full. Zero means DefaultMaxEntries, negative means
	// unbounded.
	MaxEntries int

	// KeyPrefixLength truncates the normalized query before hashing.
	// Zero hashes the whole query.
	KeyPrefixLength int

	// Now overrides the clock. Tests use it to move time forward.
	Now func() time.Time
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Entries   int     `json:"entries"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

type cacheItem struct {
	key   string
	entry Entry
}

// =============================================================================
// CLASSIFICATION CACHE
// =============================================================================

// ClassificationCache maps normalized queries to model classifications.
//
// An entry whose age is at least the TTL is treated as absent and removed
// on access. Concurrent writers for the same key are last-write-wins.
// Values are copied on the way in and out so callers never share slices
// with the cache.
//
// Safe for concurrent use.
type ClassificationCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List

	ttl        time.Duration
	maxEntries int
	prefixLen  int
	now        func() time.Time

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	sweepMu sync.Mutex
	stop    chan struct{}
	done    chan struct{}
}

// New creates a cache. The sweeper is not started; see StartSweeper.
func New(opts Options) *ClassificationCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxEntries == 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.KeyPrefixLength < 0 {
		opts.KeyPrefixLength = 0
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ClassificationCache{
		entries:    make(map[string]*list.Element),
		lru:        list.New(),
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		prefixLen:  opts.KeyPrefixLength,
		now:        opts.Now,
	}
}

// TTL returns the configured entry lifetime.
func (c *ClassificationCache) TTL() time.Duration {
	return c.ttl
}

// Key returns the cache key for query.
func (c *ClassificationCache) Key(query string) string {
	return Key(query, c.prefixLen)
}

// Get looks up query. The bool is false for a missing or expired entry.
func (c *ClassificationCache) Get(query string) (router.QueryClassification, bool) {
	return c.GetKey(c.Key(query))
}

// GetKey looks up a precomputed key.
func (c *ClassificationCache) GetKey(key string) (router.QueryClassification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		lookups.WithLabelValues("miss").Inc()
		return router.QueryClassification{}, false
	}

	item := elem.Value.(*cacheItem)
	if c.expired(item.entry) {
		c.removeElement(elem)
		c.misses.Add(1)
		c.evictions.Add(1)
		lookups.WithLabelValues("expired").Inc()
		evictions.WithLabelValues("expired").Inc()
		return router.QueryClassification{}, false
	}

	c.lru.MoveToFront(elem)
	c.hits.Add(1)
	lookups.WithLabelValues("hit").Inc()
	return item.entry.Classification.Clone(), true
}

// Set stores a classification for query, stamped with the current time.
func (c *ClassificationCache) Set(query string, cls router.QueryClassification) {
	c.SetKey(c.Key(query), cls)
}

// SetKey stores a classification under a precomputed key.
func (c *ClassificationCache) SetKey(key string, cls router.QueryClassification) {
	entry := Entry{Classification: cls.Clone(), CachedAt: c.now()}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheItem).entry = entry
		c.lru.MoveToFront(elem)
		return
	}

	if c.maxEntries > 0 {
		for c.lru.Len() >= c.maxEntries {
			c.evictOldest()
		}
	}

	c.entries[key] = c.lru.PushFront(&cacheItem{key: key, entry: entry})
}

// Clear removes every entry. Counters are kept.
func (c *ClassificationCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.lru = list.New()
}

// Len returns the number of stored entries, including expired entries
// that have not been swept yet.
func (c *ClassificationCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Sweep removes every expired entry and returns how many were removed.
func (c *ClassificationCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*cacheItem).entry) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	if removed > 0 {
		c.evictions.Add(int64(removed))
		evictions.WithLabelValues("expired").Add(float64(removed))
	}
	return removed
}

// Stats returns a snapshot of the counters.
func (c *ClassificationCache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	s := Stats{
		Entries:   c.Len(),
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
	}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s
}

// =============================================================================
// SWEEPER LIFECYCLE
// =============================================================================

// StartSweeper runs Sweep every interval until Close is called.
// Calling it while a sweeper is running does nothing.
func (c *ClassificationCache) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		return
	}

	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()
	if c.stop != nil {
		return
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.sweepLoop(interval, c.stop, c.done)
}

func (c *ClassificationCache) sweepLoop(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Close stops the sweeper and waits for it to exit. The cache remains
// usable for Get and Set. Safe to call more than once.
func (c *ClassificationCache) Close() error {
	c.sweepMu.Lock()
	defer c.sweepMu.Unlock()

	if c.stop == nil {
		return nil
	}
	close(c.stop)
	<-c.done
	c.stop = nil
	c.done = nil
	return nil
}

// =============================================================================
// INTERNAL
// =============================================================================

// expired must be called with c.mu held.
func (c *ClassificationCache) expired(e Entry) bool {
	return c.now().Sub(e.CachedAt) >= c.ttl
}

// evictOldest must be called with c.mu held.
func (c *ClassificationCache) evictOldest() {
	if elem := c.lru.Back(); elem != nil {
		c.removeElement(elem)
		c.evictions.Add(1)
		evictions.WithLabelValues("capacity").Inc()
	}
}

// removeElement must be called with c.mu held.
func (c *ClassificationCache) removeElement(elem *list.Element) {
	delete(c.entries, elem.Value.(*cacheItem).key)
	c.lru.Remove(elem)
}
