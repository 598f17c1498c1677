// ABOUTME: TTL cache of processed webhook event ids
// ABOUTME: Suppresses duplicate processing when the platform redelivers

package webhook

import (
	"container/list"
	"sync"
	"time"
)

const (
	defaultSeenTTL     = 15 * time.Minute
	defaultSeenMaxSize = 4096
)

type seenEntry struct {
	timestamp time.Time
	element   *list.Element
}

// SeenCache tracks webhook event ids that have already been processed.
// Acknowledging before processing means the platform can redeliver an
// envelope the service already handled; replaying a leave request or a TA
// question would be worse than dropping one, so processed ids are remembered
// for a TTL window. Size-bounded with oldest-first eviction.
type SeenCache struct {
	mu      sync.Mutex
	seen    map[string]*seenEntry
	order   *list.List
	ttl     time.Duration
	maxSize int
}

// NewSeenCache creates a SeenCache. Non-positive arguments select the
// defaults.
func NewSeenCache(ttl time.Duration, maxSize int) *SeenCache {
	if ttl <= 0 {
		ttl = defaultSeenTTL
	}
	if maxSize <= 0 {
		maxSize = defaultSeenMaxSize
	}
	return &SeenCache{
		seen:    make(map[string]*seenEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// CheckAndMark reports whether eventID was already processed within the TTL
// window, marking it as processed if not. The check and mark are atomic so
// two workers racing on a redelivered event agree on a single winner. An
// empty id is never deduplicated.
func (c *SeenCache) CheckAndMark(eventID string) bool {
	if eventID == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.seen[eventID]; ok {
		if time.Since(entry.timestamp) < c.ttl {
			return true
		}
		// Expired: reuse the slot with a fresh timestamp
		entry.timestamp = time.Now()
		c.order.MoveToBack(entry.element)
		return false
	}

	if len(c.seen) >= c.maxSize {
		c.evictOldest()
	}
	elem := c.order.PushBack(eventID)
	c.seen[eventID] = &seenEntry{timestamp: time.Now(), element: elem}
	return false
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (c *SeenCache) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	id, _ := front.Value.(string)
	c.order.Remove(front)
	delete(c.seen, id)
}

// Len returns the number of tracked ids.
func (c *SeenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
