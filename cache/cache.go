package cache

import (
	"strings"
	"sync"
	"time"
)

// Default TTLs for cached reads. Dashboard aggregates change often so they
// get a shorter window.
const (
	DefaultTTL   = 5 * time.Minute
	DashboardTTL = time.Minute
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is a process-wide key/value store with per-entry TTLs. Expired
// entries are treated as absent and evicted lazily on the next read, there
// is no background sweep and no size bound. A miss is never an error, the
// caller recomputes and calls Set.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// New returns a cache using the wall clock.
func New() *Cache {
	return NewWithClock(time.Now)
}

// NewWithClock returns a cache with an injected clock so tests can control
// expiry without sleeping.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Get returns the value stored under key, or false if the key is absent or
// its entry has expired. Expired entries are evicted on the way out.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for ttl. A non-positive ttl falls back to
// DefaultTTL.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Invalidate removes every key that starts with prefix. Mutating handlers
// call this with the collection namespace, e.g. "tools".
func (c *Cache) Invalidate(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}
