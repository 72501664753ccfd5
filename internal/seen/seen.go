package seen

import (
	"log"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"wikifeed/internal/storage"
)

const DefaultTTL = 24 * time.Hour

// Set tracks item IDs already delivered into the visible feed or
// resident in the look-ahead buffer, scoped per (language, topics)
// configuration. Entries expire after the TTL so previously seen
// content can resurface; the expiry runs on wall-clock timestamps and
// is best-effort, not a strict window. Persistence is write-through
// and best-effort as well: a storage failure never blocks the feed.
type Set struct {
	cache *cache.Cache
	store storage.Storage
	scope string
	ttl   time.Duration
	mu    sync.Mutex
}

// Scope derives the persistence scope key from a feed configuration
func Scope(language string, topics []string) string {
	sorted := make([]string, len(topics))
	copy(sorted, topics)
	sort.Strings(sorted)
	return language + "|" + strings.Join(sorted, ",")
}

// NewSet creates a seen set for the given scope, reloading any
// persisted window that has not yet expired. A non-positive ttl falls
// back to the default 24h.
func NewSet(store storage.Storage, scope string, ttl time.Duration) *Set {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s := &Set{
		cache: cache.New(ttl, 10*time.Minute),
		store: store,
		scope: scope,
		ttl:   ttl,
	}

	if err := store.PurgeBefore(time.Now().Add(-ttl)); err != nil {
		log.Printf("Warning: failed to purge expired seen items: %v", err)
	}

	persisted, err := store.LoadSeen(scope)
	if err != nil {
		log.Printf("Warning: failed to load persisted seen items: %v", err)
		return s
	}
	now := time.Now()
	for id, seenAt := range persisted {
		remaining := s.ttl - now.Sub(seenAt)
		if remaining <= 0 {
			continue
		}
		s.cache.Set(strconv.FormatInt(id, 10), struct{}{}, remaining)
	}
	if len(persisted) > 0 {
		log.Printf("Restored %d seen items for scope %s", len(persisted), scope)
	}

	return s
}

// Add marks an ID as seen and writes it through to storage
func (s *Set) Add(id int64) {
	s.mu.Lock()
	s.cache.Set(strconv.FormatInt(id, 10), struct{}{}, s.ttl)
	s.mu.Unlock()

	if err := s.store.SaveSeen(s.scope, id, time.Now()); err != nil {
		log.Printf("Warning: failed to persist seen item %d: %v", id, err)
	}
}

// Contains reports whether an ID is inside the seen window
func (s *Set) Contains(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found := s.cache.Get(strconv.FormatInt(id, 10))
	return found
}

// Len returns the current number of unexpired entries
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.ItemCount()
}

// Clear empties the set and its persisted scope. Called on explicit
// refresh and on language or topic changes.
func (s *Set) Clear() {
	s.mu.Lock()
	s.cache.Flush()
	s.mu.Unlock()

	if err := s.store.ClearScope(s.scope); err != nil {
		log.Printf("Warning: failed to clear persisted scope %s: %v", s.scope, err)
	}
}
