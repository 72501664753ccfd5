package itemcache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"wikifeed/internal/models"
)

const DefaultCapacity = 100

// Manager is a bounded item metadata cache with least-recently-used
// eviction. Both reads and writes refresh recency, so eviction always
// removes the entries that have gone longest without access. Safe for
// concurrent use from the feed path and background prefetch tasks.
type Manager struct {
	cache *lru.Cache[int64, models.ContentItem]
}

// NewManager creates an item cache bounded to capacity entries.
// A non-positive capacity falls back to the default.
func NewManager(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	// lru.New only fails on capacity <= 0, which is guarded above
	c, _ := lru.New[int64, models.ContentItem](capacity)
	return &Manager{cache: c}
}

// Put inserts or overwrites the entry for the item's ID, refreshing
// its recency. The oldest entries are evicted when capacity is
// exceeded; a Get immediately after Put on the same key always sees
// the just-written value.
func (m *Manager) Put(item models.ContentItem) {
	m.cache.Add(item.ID, item)
}

// Get returns the cached item and refreshes its recency
func (m *Manager) Get(id int64) (models.ContentItem, bool) {
	return m.cache.Get(id)
}

// Len returns the current entry count
func (m *Manager) Len() int {
	return m.cache.Len()
}

// HalveOldest evicts the oldest half of the population. Called on a
// memory-pressure signal.
func (m *Manager) HalveOldest() {
	target := m.cache.Len() / 2
	for m.cache.Len() > target {
		if _, _, ok := m.cache.RemoveOldest(); !ok {
			break
		}
	}
}

// Purge removes every entry
func (m *Manager) Purge() {
	m.cache.Purge()
}
