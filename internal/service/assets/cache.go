package assets

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mamadbah2/assetdesk/internal/monitoring"
)

const (
	listCacheSize   = 256
	submitGuardSize = 4096
	submitGuardTTL  = 2 * time.Minute
)

// listCache keeps rendered list pages per user and query. A nil cache is
// valid and never hits.
type listCache struct {
	lru *expirable.LRU[string, ListPage]
}

func newListCache(ttl time.Duration) *listCache {
	if ttl <= 0 {
		return nil
	}
	return &listCache{lru: expirable.NewLRU[string, ListPage](listCacheSize, nil, ttl)}
}

func listCacheKey(userID string, q ListQuery) string {
	return userID + "?" + q.CacheKey()
}

func (c *listCache) get(key string) (ListPage, bool) {
	if c == nil {
		return ListPage{}, false
	}
	page, ok := c.lru.Get(key)
	if ok {
		monitoring.ListCacheHitAmount.Inc()
	} else {
		monitoring.ListCacheMissAmount.Inc()
	}
	return page, ok
}

func (c *listCache) add(key string, page ListPage) {
	if c == nil {
		return
	}
	c.lru.Add(key, page)
}

func (c *listCache) purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}

// submitGuard remembers recently used submission IDs.
type submitGuard struct {
	mu  sync.Mutex
	lru *expirable.LRU[string, struct{}]
}

func newSubmitGuard(ttl time.Duration) *submitGuard {
	return &submitGuard{lru: expirable.NewLRU[string, struct{}](submitGuardSize, nil, ttl)}
}

// claim reports whether id was unused and marks it used.
func (g *submitGuard) claim(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lru.Contains(id) {
		return false
	}
	g.lru.Add(id, struct{}{})
	return true
}

// release makes id usable again after a failed write.
func (g *submitGuard) release(id string) {
	g.lru.Remove(id)
}
