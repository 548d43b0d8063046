package channel

import "sync"

type entry struct {
	id      ListenerID
	message MessageListener
	exit    ExitListener
}

// Registry is listener bookkeeping shared by channel implementations.
// The zero value is ready to use.
type Registry struct {
	mu      sync.Mutex
	nextID  ListenerID
	entries []entry
}

// AddMessageListener registers fn for inbound messages.
func (r *Registry) AddMessageListener(fn MessageListener) ListenerID {
	return r.add(entry{message: fn})
}

// AddExitListener registers fn for the exit notification.
func (r *Registry) AddExitListener(fn ExitListener) ListenerID {
	return r.add(entry{exit: fn})
}

func (r *Registry) add(e entry) ListenerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e.id = r.nextID
	r.entries = append(r.entries, e)
	return e.id
}

// RemoveListener removes the listener with id. It reports whether one was removed.
func (r *Registry) RemoveListener(id ListenerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// DispatchMessage calls every message listener in registration order.
func (r *Registry) DispatchMessage(msg Message) {
	for _, e := range r.snapshot() {
		if e.message != nil {
			e.message(msg)
		}
	}
}

// DispatchExit calls every exit listener in registration order.
func (r *Registry) DispatchExit(code int) {
	for _, e := range r.snapshot() {
		if e.exit != nil {
			e.exit(code)
		}
	}
}

func (r *Registry) snapshot() []entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entry(nil), r.entries...)
}
