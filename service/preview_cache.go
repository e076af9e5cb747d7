package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// PreviewCache memoizes rendered preview bytes in process, keyed by content
// hash plus render parameters. Eviction is capacity LRU combined with a TTL;
// a miss is always resolved by recomputation, never surfaced as an error.
type PreviewCache struct {
	entries *expirable.LRU[string, []byte]
}

// NewPreviewCache builds a cache with the given capacity and entry TTL.
func NewPreviewCache(capacity int, ttl time.Duration) *PreviewCache {
	if capacity <= 0 {
		capacity = 128
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &PreviewCache{
		entries: expirable.NewLRU[string, []byte](capacity, nil, ttl),
	}
}

func (c *PreviewCache) Get(key string) ([]byte, bool) {
	return c.entries.Get(key)
}

func (c *PreviewCache) Put(key string, data []byte) {
	c.entries.Add(key, data)
}

func (c *PreviewCache) Clear() {
	c.entries.Purge()
}

func (c *PreviewCache) Len() int {
	return c.entries.Len()
}
