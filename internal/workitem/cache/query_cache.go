package cache

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"triage-backend/internal/workitem/domain"
)

// DefaultTTL bounds staleness on the read path; the SSE channel covers
// anything shorter.
const DefaultTTL = 10 * time.Second

type entry struct {
	items    []*domain.WorkItem
	storedAt time.Time
}

// QueryCache is a short-TTL in-memory cache for listing queries. It is owned
// by whoever constructs it and passed down explicitly; there is no package
// singleton. Entries are evicted lazily on read and wholesale per user on
// any mutation.
type QueryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New creates a QueryCache with the given TTL; ttl <= 0 selects DefaultTTL.
func New(ttl time.Duration) *QueryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &QueryCache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Key builds the deterministic cache key for one user's listing query.
// The user id is the leading segment so InvalidateUser can match on prefix.
func Key(userID string, q domain.ListQuery) string {
	parts := []string{
		userID,
		strconv.Itoa(q.Limit),
		strconv.Itoa(q.Offset),
	}
	if q.Classification != nil {
		parts = append(parts, *q.Classification)
	} else {
		parts = append(parts, "")
	}
	if q.IsCompleted != nil {
		parts = append(parts, strconv.FormatBool(*q.IsCompleted))
	} else {
		parts = append(parts, "")
	}
	if q.Start != nil {
		parts = append(parts, q.Start.UTC().Format(time.RFC3339))
	} else {
		parts = append(parts, "")
	}
	if q.End != nil {
		parts = append(parts, q.End.UTC().Format(time.RFC3339))
	} else {
		parts = append(parts, "")
	}
	parts = append(parts, q.Search)
	return strings.Join(parts, "|")
}

// Get returns the cached items for key, or miss when absent or expired.
func (c *QueryCache) Get(key string) ([]*domain.WorkItem, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.items, true
}

// Put stores items under key, resetting the TTL clock.
func (c *QueryCache) Put(key string, items []*domain.WorkItem) {
	c.mu.Lock()
	c.entries[key] = entry{items: items, storedAt: c.now()}
	c.mu.Unlock()
}

// InvalidateUser removes every entry built for userID. Called after any
// create, update or delete affecting that user's items.
func (c *QueryCache) InvalidateUser(userID string) {
	prefix := userID + "|"
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}
