// Package events provides a minimal in-memory pub/sub bus for registry change
// events. Subscribers receive events on buffered channels; a subscriber that
// falls behind drops events rather than blocking publishers.
package events

import "sync"

// Type identifies the kind of a registry change event.
type Type string

const (
	ThingTypeAdded   Type = "thing_type_added"
	ThingTypeRemoved Type = "thing_type_removed"
)

// Event is one registry change notification.
type Event struct {
	Type      Type
	BindingID string
	UID       string
}

// Bus fans events out to all current subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	closed bool
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a new subscriber and returns its receive channel. The
// buffer size bounds how far the subscriber may lag before events are dropped.
func (b *Bus) Subscribe(buffer int) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers the event to every subscriber without blocking.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber buffer full; drop rather than stall the registry.
		}
	}
}

// Close closes all subscriber channels. Publish becomes a no-op afterwards.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
