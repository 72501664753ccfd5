package storage

import (
	"time"
)

// Storage persists the seen-item window across process restarts.
// Feed state, buffers and both caches are cold-start on launch; only
// the seen-ID set is written through, best-effort, so recently shown
// content does not immediately resurface after a relaunch.
type Storage interface {
	LoadSeen(scope string) (map[int64]time.Time, error)
	SaveSeen(scope string, id int64, seenAt time.Time) error
	ClearScope(scope string) error
	PurgeBefore(cutoff time.Time) error
	Close() error
}
