package bus

import "github.com/mattjoyce/ipcee/internal/emitter"

// On registers fn for events matching pattern.
func (b *Bus) On(pattern string, fn emitter.Handler) emitter.ListenerID {
	return b.emitter.On(pattern, fn)
}

// Once registers fn for the next event matching pattern.
func (b *Bus) Once(pattern string, fn emitter.Handler) emitter.ListenerID {
	return b.emitter.Once(pattern, fn)
}

// Many registers fn for the next n events matching pattern.
func (b *Bus) Many(pattern string, n int, fn emitter.Handler) emitter.ListenerID {
	return b.emitter.Many(pattern, n, fn)
}

// OnAny registers fn for every event.
func (b *Bus) OnAny(fn emitter.AnyHandler) emitter.ListenerID {
	return b.emitter.OnAny(fn)
}

// Off removes a listener. The built-in error listener cannot be removed.
func (b *Bus) Off(id emitter.ListenerID) bool {
	if id == b.errorID {
		return false
	}
	return b.emitter.Off(id)
}

// OffAll removes every listener registered with pattern ("" for all).
// The built-in error listener is kept.
func (b *Bus) OffAll(pattern string) int {
	return b.emitter.OffAllExcept(pattern, b.errorID)
}

// Emit dispatches an event locally; nothing is sent to the peer.
func (b *Bus) Emit(topic string, args ...any) bool {
	return b.emitter.Emit(topic, args...)
}

// ListenerCount returns how many listeners would receive topic.
func (b *Bus) ListenerCount(topic string) int {
	return b.emitter.ListenerCount(topic)
}

// Patterns returns registered patterns with listener counts.
func (b *Bus) Patterns() map[string]int {
	return b.emitter.Patterns()
}

// Options returns the dispatcher options the bus was adapted with.
func (b *Bus) Options() emitter.Options {
	return b.emitter.Options()
}
