// Package bus is an in-process publish/subscribe channel used for
// notification invalidation fan-out inside the server.
package bus

import (
	"strings"
	"sync"
)

// Event is a topic plus an opaque payload. Topics are dot-separated,
// e.g. "notifications.<user-id>".
type Event struct {
	Topic   string
	Payload any
}

type subscription struct {
	prefix string
	ch     chan Event
}

// Bus fans events out to subscribers whose prefix matches the topic.
type Bus struct {
	mu   sync.RWMutex
	subs map[int]*subscription
	next int
}

func New() *Bus {
	return &Bus{
		subs: make(map[int]*subscription),
	}
}

// Publish delivers the event to every matching subscriber. Sends are
// non-blocking: a full subscriber channel drops the event.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if strings.HasPrefix(evt.Topic, sub.prefix) {
			select {
			case sub.ch <- evt:
			default:
			}
		}
	}
}

// Subscribe returns a channel receiving events whose topic has the given
// prefix, and an unsubscribe function. The unsubscribe function is safe
// to call more than once.
func (b *Bus) Subscribe(prefix string, bufSize int) (<-chan Event, func()) {
	ch := make(chan Event, bufSize)
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = &subscription{prefix: prefix, ch: ch}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}
