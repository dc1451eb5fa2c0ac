package sse

import (
	"sync"
)

// Event is one server-sent event addressed to a user.
type Event struct {
	Type string
	Data interface{}
}

// Hub fans events out to the open streams of each user. Slow subscribers lose events
// instead of blocking publishers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
	bufferSize  int
	closed      bool
}

func NewHub(bufferSize int) *Hub {
	if bufferSize < 1 {
		bufferSize = 10
	}
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a stream for key and returns its channel and a cleanup function.
func (h *Hub) Subscribe(key string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.bufferSize)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	if h.subscribers[key] == nil {
		h.subscribers[key] = make(map[chan Event]struct{})
	}
	h.subscribers[key][ch] = struct{}{}

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[key][ch]; !ok {
			return
		}
		delete(h.subscribers[key], ch)
		close(ch)
		if len(h.subscribers[key]) == 0 {
			delete(h.subscribers, key)
		}
	}

	return ch, cleanup
}

// Publish delivers event to every stream of key and reports how many received it.
func (h *Hub) Publish(key string, event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.subscribers[key] {
		select {
		case ch <- event:
			delivered++
		default:
			// Skip if channel is full (non-blocking to prevent deadlock)
		}
	}
	return delivered
}

// SubscriberCount returns the number of active streams for key.
func (h *Hub) SubscriberCount(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subscribers[key])
}

// Close ends every open stream. Later subscriptions receive an already closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for key, chans := range h.subscribers {
		for ch := range chans {
			close(ch)
		}
		delete(h.subscribers, key)
	}
	h.closed = true
}
