// Package memory provides the in-process capture cache: a small LRU with
// per-entry TTL, scoped to an explicit object so tests can construct
// isolated instances.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/user/domcapture-service/internal/entity"
	"github.com/user/domcapture-service/internal/repository"
)

const (
	DefaultMaxEntries = 5
	DefaultTTL        = 30 * time.Second
)

type cacheEntry struct {
	target   string
	state    *entity.SerializedDOMState
	storedAt time.Time
}

// CacheRepoImpl implements CaptureCacheRepository in process memory with
// least-recently-used eviction and TTL expiry. Every operation, Get
// included, mutates recency order or entry state, so all of them serialize
// on one mutex.
type CacheRepoImpl struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	ll         *list.List
	entries    map[string]*list.Element
	now        func() time.Time
}

// NewCacheRepo creates a cache bounded to maxEntries with the given TTL.
// Non-positive arguments take the defaults.
func NewCacheRepo(maxEntries int, ttl time.Duration) *CacheRepoImpl {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CacheRepoImpl{
		ttl:        ttl,
		maxEntries: maxEntries,
		ll:         list.New(),
		entries:    make(map[string]*list.Element),
		now:        time.Now,
	}
}

// Get returns the cached state for a target if it is still within TTL.
func (c *CacheRepoImpl) Get(ctx context.Context, target string) (*entity.SerializedDOMState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[target]
	if !ok {
		return nil, repository.ErrCacheMiss
	}
	entry := el.Value.(*cacheEntry)
	if c.now().Sub(entry.storedAt) > c.ttl {
		// Stale: drop it so the entry cannot be served again.
		c.remove(el)
		return nil, repository.ErrCacheMiss
	}
	c.ll.MoveToFront(el)
	return entry.state, nil
}

// Put stores a fresh capture, evicting the least-recently-used entry when
// the cache is full.
func (c *CacheRepoImpl) Put(ctx context.Context, target string, state *entity.SerializedDOMState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[target]; ok {
		entry := el.Value.(*cacheEntry)
		entry.state = state
		entry.storedAt = c.now()
		c.ll.MoveToFront(el)
		return nil
	}
	for c.ll.Len() >= c.maxEntries {
		if oldest := c.ll.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
	el := c.ll.PushFront(&cacheEntry{target: target, state: state, storedAt: c.now()})
	c.entries[target] = el
	return nil
}

// Invalidate drops the entry for a target.
func (c *CacheRepoImpl) Invalidate(ctx context.Context, target string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[target]; ok {
		c.remove(el)
	}
	return nil
}

// Clear drops every entry.
func (c *CacheRepoImpl) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.entries = make(map[string]*list.Element)
	return nil
}

// remove must be called with the write lock held.
func (c *CacheRepoImpl) remove(el *list.Element) {
	entry := el.Value.(*cacheEntry)
	c.ll.Remove(el)
	delete(c.entries, entry.target)
}
