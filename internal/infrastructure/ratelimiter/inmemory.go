package ratelimiter

import (
	"sync"
	"time"
)

type cacheEntry struct {
	bucket   *Bucket
	expireAt time.Time
}

// InMemoryCache stores buckets per source with a TTL. Expired entries are
// dropped by a background janitor so idle sources do not accumulate.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	stop    chan struct{}
}

func NewInMemoryCache(ttl time.Duration) *InMemoryCache {
	c := &InMemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stop:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *InMemoryCache) Get(key string) (*Bucket, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expireAt) {
		return nil, false
	}
	return entry.bucket, true
}

func (c *InMemoryCache) Set(key string, bucket *Bucket) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{bucket: bucket, expireAt: time.Now().Add(c.ttl)}
}

func (c *InMemoryCache) Close() {
	close(c.stop)
}

func (c *InMemoryCache) janitor() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expireAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}
