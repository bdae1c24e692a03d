package application

import (
	"sync"
	"time"
)

// blockCache memoizes recent eligibility lookups so a multi-participant
// booking does not hit the sanction store once per participant on every
// attempt. Entries expire quickly and every sanction mutation invalidates
// the whole cache, so a stale positive answer cannot outlive a new sanction.
type blockCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]blockCacheEntry
}

type blockCacheEntry struct {
	status    BlockStatus
	expiresAt time.Time
}

func newBlockCache(ttl time.Duration, maxEntries int, now func() time.Time) *blockCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	if now == nil {
		now = time.Now
	}
	return &blockCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]blockCacheEntry),
	}
}

func (c *blockCache) Get(key string) (BlockStatus, bool) {
	if c == nil {
		return BlockStatus{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return BlockStatus{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return BlockStatus{}, false
	}
	return entry.status, true
}

func (c *blockCache) Store(key string, status BlockStatus) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = blockCacheEntry{status: status, expiresAt: expiry}
}

func (c *blockCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]blockCacheEntry)
	c.mu.Unlock()
}

func (c *blockCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *blockCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}
