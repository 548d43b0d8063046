// Package emitter is a synchronous publish/subscribe dispatcher with optional
// wildcard topic matching.
//
// Topics are split into segments by a delimiter. With wildcards enabled, a
// "*" segment matches exactly one segment (on either the listener or the
// emitted side) and a "**" segment in a listener pattern matches any number
// of segments, including none.
package emitter

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/mattjoyce/ipcee/internal/log"
)

const (
	// ErrorTopic is emitted for forwarded and local errors.
	ErrorTopic = "error"

	defaultDelimiter    = "."
	defaultMaxListeners = 10
)

// Handler receives the positional arguments of an emitted event.
type Handler func(args ...any)

// AnyHandler receives every emitted event along with its topic.
type AnyHandler func(topic string, args ...any)

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

// Options configures matching behaviour.
type Options struct {
	Wildcard     bool   `yaml:"wildcard" toml:"wildcard"`
	Delimiter    string `yaml:"delimiter" toml:"delimiter"`
	MaxListeners int    `yaml:"max_listeners" toml:"max_listeners"`
	// StrictErrors makes an "error" emit with no listener panic with
	// *UnhandledError instead of being dropped.
	StrictErrors bool `yaml:"strict_errors" toml:"strict_errors"`
}

// DefaultOptions returns exact matching with "." as the delimiter.
func DefaultOptions() Options {
	return Options{
		Delimiter:    defaultDelimiter,
		MaxListeners: defaultMaxListeners,
	}
}

// UnhandledError is the panic value for an unhandled "error" emit in strict mode.
type UnhandledError struct {
	Args []any
}

func (e *UnhandledError) Error() string {
	if len(e.Args) == 0 {
		return "emitter: unhandled error event"
	}
	return fmt.Sprintf("emitter: unhandled error event: %v", e.Args[0])
}

type listener struct {
	id       ListenerID
	pattern  string
	segments []string
	fn       Handler
	// remaining is the number of calls left; 0 means unlimited.
	remaining int
}

type anyListener struct {
	id ListenerID
	fn AnyHandler
}

// Emitter dispatches events to listeners in registration order.
// Listeners run on the emitting goroutine, outside the registry lock.
type Emitter struct {
	opts   Options
	logger *slog.Logger

	mu        sync.Mutex
	nextID    ListenerID
	listeners []*listener
	anys      []*anyListener
	warned    map[string]bool
}

// New creates an Emitter. Zero-valued options fall back to DefaultOptions.
func New(opts Options) *Emitter {
	if opts.Delimiter == "" {
		opts.Delimiter = defaultDelimiter
	}
	if opts.MaxListeners < 0 {
		opts.MaxListeners = 0
	}
	return &Emitter{
		opts:   opts,
		logger: log.WithComponent("emitter"),
		warned: make(map[string]bool),
	}
}

// Options returns the effective options.
func (e *Emitter) Options() Options {
	return e.opts
}

// On registers fn for every event matching pattern.
func (e *Emitter) On(pattern string, fn Handler) ListenerID {
	return e.add(pattern, fn, 0)
}

// Once registers fn for the next event matching pattern only.
func (e *Emitter) Once(pattern string, fn Handler) ListenerID {
	return e.add(pattern, fn, 1)
}

// Many registers fn for the next n events matching pattern.
func (e *Emitter) Many(pattern string, n int, fn Handler) ListenerID {
	if n <= 0 {
		n = 1
	}
	return e.add(pattern, fn, n)
}

// OnAny registers fn for every emitted event regardless of topic.
func (e *Emitter) OnAny(fn AnyHandler) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	e.anys = append(e.anys, &anyListener{id: e.nextID, fn: fn})
	return e.nextID
}

func (e *Emitter) add(pattern string, fn Handler, remaining int) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	e.listeners = append(e.listeners, &listener{
		id:        e.nextID,
		pattern:   pattern,
		segments:  e.split(pattern),
		fn:        fn,
		remaining: remaining,
	})

	if e.opts.MaxListeners > 0 && !e.warned[pattern] {
		count := 0
		for _, l := range e.listeners {
			if l.pattern == pattern {
				count++
			}
		}
		if count > e.opts.MaxListeners {
			e.warned[pattern] = true
			e.logger.Warn("possible listener leak detected",
				"pattern", pattern, "count", count, "max_listeners", e.opts.MaxListeners)
		}
	}

	return e.nextID
}

// Off removes the listener with the given id. It reports whether a listener was removed.
func (e *Emitter) Off(id ListenerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, l := range e.listeners {
		if l.id == id {
			e.listeners = append(e.listeners[:i:i], e.listeners[i+1:]...)
			return true
		}
	}
	for i, l := range e.anys {
		if l.id == id {
			e.anys = append(e.anys[:i:i], e.anys[i+1:]...)
			return true
		}
	}
	return false
}

// OffAll removes every listener registered with exactly pattern, or every
// topic listener when pattern is empty. It returns the number removed.
func (e *Emitter) OffAll(pattern string) int {
	return e.OffAllExcept(pattern, 0)
}

// OffAllExcept is OffAll that leaves the listener with id keep in place.
// The removal is atomic with respect to Emit.
func (e *Emitter) OffAllExcept(pattern string, keep ListenerID) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.listeners[:0:0]
	removed := 0
	for _, l := range e.listeners {
		if l.id != keep && (pattern == "" || l.pattern == pattern) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	e.listeners = kept
	if pattern == "" {
		e.warned = make(map[string]bool)
	} else {
		delete(e.warned, pattern)
	}
	return removed
}

// Emit dispatches topic with args to every matching listener and reports
// whether any topic listener ran. Catch-all listeners do not count.
func (e *Emitter) Emit(topic string, args ...any) bool {
	segments := e.split(topic)

	e.mu.Lock()
	var matched []*listener
	kept := e.listeners[:0:0]
	for _, l := range e.listeners {
		if !e.matches(l, topic, segments) {
			kept = append(kept, l)
			continue
		}
		matched = append(matched, l)
		if l.remaining > 0 {
			l.remaining--
			if l.remaining == 0 {
				continue
			}
		}
		kept = append(kept, l)
	}
	e.listeners = kept
	anys := append([]*anyListener(nil), e.anys...)
	e.mu.Unlock()

	for _, a := range anys {
		a.fn(topic, args...)
	}

	if len(matched) == 0 {
		if topic == ErrorTopic && e.opts.StrictErrors {
			panic(&UnhandledError{Args: args})
		}
		return false
	}

	for _, l := range matched {
		l.fn(args...)
	}
	return true
}

// ListenerCount returns how many topic listeners would receive topic.
func (e *Emitter) ListenerCount(topic string) int {
	segments := e.split(topic)

	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, l := range e.listeners {
		if e.matches(l, topic, segments) {
			n++
		}
	}
	return n
}

// Patterns returns registered patterns with their listener counts.
func (e *Emitter) Patterns() map[string]int {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]int, len(e.listeners))
	for _, l := range e.listeners {
		out[l.pattern]++
	}
	return out
}

// SortedPatterns returns the registered patterns in lexical order.
func (e *Emitter) SortedPatterns() []string {
	p := e.Patterns()
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (e *Emitter) split(topic string) []string {
	if !e.opts.Wildcard {
		return nil
	}
	return strings.Split(topic, e.opts.Delimiter)
}

func (e *Emitter) matches(l *listener, topic string, segments []string) bool {
	if !e.opts.Wildcard {
		return l.pattern == topic
	}
	return matchSegments(l.segments, segments)
}

// matchSegments matches a listener pattern against an emitted topic.
func matchSegments(pattern, topic []string) bool {
	if len(pattern) == 0 {
		return len(topic) == 0
	}
	if pattern[0] == "**" {
		if matchSegments(pattern[1:], topic) {
			return true
		}
		return len(topic) > 0 && matchSegments(pattern, topic[1:])
	}
	if len(topic) == 0 {
		return false
	}
	if pattern[0] == "*" || topic[0] == "*" || pattern[0] == topic[0] {
		return matchSegments(pattern[1:], topic[1:])
	}
	return false
}
