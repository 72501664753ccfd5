package assetcache

import (
	"container/list"
	"sync"
)

const (
	DefaultByteBudget = 50 << 20
	DefaultMaxEntries = 50
)

type entry struct {
	key  string
	data []byte
	cost int64
}

// Cache is a cost-weighted, recency-evicting binary store. Cumulative
// cost never exceeds the byte budget and entry count never exceeds the
// entry cap; inserts are O(1) amortized.
type Cache struct {
	mu         sync.Mutex
	byteBudget int64
	maxEntries int
	cost       int64
	order      *list.List // front = most recently used
	entries    map[string]*list.Element
}

// New creates a cache bounded by byteBudget and maxEntries.
// Non-positive bounds fall back to the defaults.
func New(byteBudget int64, maxEntries int) *Cache {
	if byteBudget <= 0 {
		byteBudget = DefaultByteBudget
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Cache{
		byteBudget: byteBudget,
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

// Get returns the cached payload and refreshes its recency
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).data, true
}

// Put inserts or overwrites the payload for key with the given cost,
// then evicts least-recently-used entries until both bounds hold.
// A payload costing more than the whole budget is not cached at all.
func (c *Cache) Put(key string, data []byte, cost int64) {
	if cost > c.byteBudget {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		old := el.Value.(*entry)
		c.cost += cost - old.cost
		old.data = data
		old.cost = cost
		c.order.MoveToFront(el)
	} else {
		el := c.order.PushFront(&entry{key: key, data: data, cost: cost})
		c.entries[key] = el
		c.cost += cost
	}

	for c.cost > c.byteBudget || c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
	}
}

func (c *Cache) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	c.order.Remove(el)
	delete(c.entries, e.key)
	c.cost -= e.cost
}

// Len returns the current entry count
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Cost returns the current cumulative cost
func (c *Cache) Cost() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cost
}

// Flush clears the cache unconditionally. Called on a memory-pressure
// signal.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
	c.cost = 0
}
