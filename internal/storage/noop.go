package storage

import (
	"time"
)

// Noop is a storage backend that persists nothing. Tests and
// cache-only deployments use it; the seen window then lives only as
// long as the process.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (n *Noop) LoadSeen(scope string) (map[int64]time.Time, error) {
	return map[int64]time.Time{}, nil
}

func (n *Noop) SaveSeen(scope string, id int64, seenAt time.Time) error {
	return nil
}

func (n *Noop) ClearScope(scope string) error {
	return nil
}

func (n *Noop) PurgeBefore(cutoff time.Time) error {
	return nil
}

func (n *Noop) Close() error {
	return nil
}
