// Package events mirrors bus traffic into an in-memory pub/sub hub so that
// operators can watch it live or catch up from a small ring buffer.
package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattjoyce/ipcee/internal/handle"
)

// Event is one observed dispatch. Topic is the bus topic, or "exit".
type Event struct {
	ID    int64           `json:"id"`
	Topic string          `json:"topic"`
	At    time.Time       `json:"at"`
	Data  json.RawMessage `json:"data"`
}

// Hub is an in-memory pub/sub with a ring buffer for late subscribers.
// It implements bus.Tap.
type Hub struct {
	nextID  atomic.Int64
	dropped atomic.Int64

	mu    sync.Mutex
	ring  []Event
	start int
	size  int

	subs      map[int]chan Event
	nextSubID int
	subBuffer int
}

// NewHub returns a hub keeping the last capacity events.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		ring:      make([]Event, capacity),
		subs:      make(map[int]chan Event),
		subBuffer: 128,
	}
}

// Publish records an event. Handles among the arguments are recorded by
// their descriptor since they have no JSON form.
func (h *Hub) Publish(topic string, data any) {
	ev := Event{
		ID:    h.nextID.Add(1),
		Topic: topic,
		At:    time.Now().UTC(),
		Data:  encode(data),
	}

	h.mu.Lock()
	h.pushLocked(ev)
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			h.dropped.Add(1)
		}
	}
	h.mu.Unlock()
}

// Subscribe returns a live event feed and its cancel func. Slow subscribers
// lose events instead of blocking the bus.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Event, h.subBuffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// SnapshotSince returns buffered events with ID > lastID, oldest first.
func (h *Hub) SnapshotSince(lastID int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, 0, h.size)
	for i := 0; i < h.size; i++ {
		ev := h.ring[(h.start+i)%len(h.ring)]
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dropped returns how many events were not delivered to slow subscribers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

func (h *Hub) pushLocked(ev Event) {
	capacity := len(h.ring)
	if h.size < capacity {
		h.ring[(h.start+h.size)%capacity] = ev
		h.size++
		return
	}

	// Overwrite oldest.
	h.ring[h.start] = ev
	h.start = (h.start + 1) % capacity
}

func encode(data any) json.RawMessage {
	if data == nil {
		return json.RawMessage("null")
	}
	if args, ok := data.([]any); ok {
		clean := make([]any, len(args))
		for i, a := range args {
			if d, ok := handle.Classify(a); ok {
				clean[i] = map[string]string{"handle": d.String()}
				continue
			}
			clean[i] = a
		}
		data = clean
	}
	b, err := json.Marshal(data)
	if err != nil {
		return json.RawMessage(`{"unencodable":true}`)
	}
	return b
}
