package events

import (
	"sync"
)

// ConfigChange announces a new feed configuration. Either field may
// carry over the previous value when only the other changed.
type ConfigChange struct {
	Language string
	Topics   []string
}

// Bus is a typed in-process signal bus replacing stringly-named global
// notifications: subscribers register channels at construction time
// and publishers fan out without blocking. A slow subscriber coalesces
// rather than stalling the publisher: config changes keep only the
// latest pending value, and repeated pressure signals collapse into
// one.
type Bus struct {
	mu       sync.Mutex
	config   []chan ConfigChange
	pressure []chan struct{}
}

func NewBus() *Bus {
	return &Bus{}
}

// SubscribeConfig returns a channel receiving configuration changes
func (b *Bus) SubscribeConfig() <-chan ConfigChange {
	ch := make(chan ConfigChange, 1)
	b.mu.Lock()
	b.config = append(b.config, ch)
	b.mu.Unlock()
	return ch
}

// SubscribeMemoryPressure returns a channel receiving low-memory
// notifications
func (b *Bus) SubscribeMemoryPressure() <-chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	b.pressure = append(b.pressure, ch)
	b.mu.Unlock()
	return ch
}

// PublishConfigChange fans a configuration change out to all
// subscribers without blocking. A pending undelivered change is
// replaced, never kept: only the latest configuration matters.
func (b *Bus) PublishConfigChange(change ConfigChange) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.config {
		select {
		case ch <- change:
			continue
		default:
		}
		// Full buffer: evict the stale pending change. The subscriber
		// may drain it concurrently, so the send is retried
		// non-blocking either way.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- change:
		default:
		}
	}
}

// PublishMemoryPressure fans a low-memory notification out to all
// subscribers without blocking. May be delivered at any time, from
// any goroutine.
func (b *Bus) PublishMemoryPressure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.pressure {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
