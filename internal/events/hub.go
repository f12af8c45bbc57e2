package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tmrp/users-api/internal/users"
)

// Type identifies what happened to a user.
type Type string

const (
	UserCreated Type = "user.created"
	UserUpdated Type = "user.updated"
	UserDeleted Type = "user.deleted"
)

// Event describes a single change to the user store.
type Event struct {
	Type Type       `json:"type"`
	User users.User `json:"user"`
	At   time.Time  `json:"at"`
}

// Hub fans events out to subscribers. Publish never blocks: a subscriber
// whose buffer is full misses the event.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]chan Event
	next    uint64
	dropped atomic.Uint64
	now     func() time.Time
}

// NewHub creates a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[uint64]chan Event),
		now:  time.Now,
	}
}

// Publish stamps the event time if unset and delivers it to every subscriber.
func (h *Hub) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = h.now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- evt:
		default:
			h.dropped.Add(1)
		}
	}
}

// Subscribe registers a new subscriber with the given buffer size. The
// returned function unsubscribes and closes the channel; it is safe to call
// more than once.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped because a subscriber
// was not keeping up.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
