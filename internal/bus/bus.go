package bus

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/ipcee/internal/channel"
	"github.com/mattjoyce/ipcee/internal/emitter"
	"github.com/mattjoyce/ipcee/internal/handle"
	"github.com/mattjoyce/ipcee/internal/log"
	"github.com/mattjoyce/ipcee/internal/metrics"
)

const (
	// ExitTopic is emitted once with the exit code when the channel terminates.
	ExitTopic = "exit"
	// ErrorTopic carries forwarded peer errors: (message string, stack string).
	ErrorTopic = emitter.ErrorTopic
)

var (
	// ErrIPCNotEnabled is returned by Adapt when the channel cannot send.
	ErrIPCNotEnabled = errors.New("IPC is not enabled")
	// ErrDetached is returned by Send after the channel terminated or Detach was called.
	ErrDetached = errors.New("bus: channel detached")
	// ErrEmptyTopic is returned by Send for an empty topic.
	ErrEmptyTopic = errors.New("bus: empty topic")
)

// State is the attachment state of a Bus.
type State int

const (
	StateAttached State = iota
	StateDetached
)

func (s State) String() string {
	if s == StateAttached {
		return "attached"
	}
	return "detached"
}

// Callback is fired once by the channel when a send was acknowledged.
type Callback = func(error)

// Call is one structured outbound call.
type Call struct {
	Topic string
	Args  []any
	Done  Callback
}

// Tap observes every inbound dispatch and the exit event.
// *events.Hub satisfies it.
type Tap interface {
	Publish(eventType string, data any)
}

// Option configures Adapt.
type Option func(*Bus)

// WithLogger overrides the bus logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// WithTap mirrors inbound traffic into t.
func WithTap(t Tap) Option {
	return func(b *Bus) { b.tap = t }
}

// WithID overrides the generated instance id.
func WithID(id string) Option {
	return func(b *Bus) { b.id = id }
}

// Bus is a per-channel adapter. It owns its channel reference until the
// channel terminates.
type Bus struct {
	id      string
	emitter *emitter.Emitter
	logger  *slog.Logger
	tap     Tap

	// errorID is the always-present no-op "error" listener.
	errorID emitter.ListenerID

	mu     sync.Mutex
	ch     channel.Channel
	msgID  channel.ListenerID
	exitID channel.ListenerID
	state  State
}

// Adapt attaches a bus to n. opts is handed to the event dispatcher as is.
// It fails with ErrIPCNotEnabled, without registering anything, when n has no
// send capability.
func Adapt(n channel.Notifier, opts emitter.Options, extra ...Option) (*Bus, error) {
	if n == nil {
		return nil, ErrIPCNotEnabled
	}
	ch, ok := n.(channel.Channel)
	if !ok {
		return nil, ErrIPCNotEnabled
	}
	if r, ok := n.(channel.IPCReporter); ok && !r.IPCEnabled() {
		return nil, ErrIPCNotEnabled
	}

	b := &Bus{
		id:      uuid.NewString(),
		emitter: emitter.New(opts),
		ch:      ch,
	}
	for _, opt := range extra {
		opt(b)
	}
	if b.logger == nil {
		b.logger = log.WithBus(b.id)
	}

	b.errorID = b.emitter.On(ErrorTopic, func(...any) {})

	b.mu.Lock()
	b.msgID = ch.AddMessageListener(b.handleMessage)
	b.exitID = ch.AddExitListener(b.handleExit)
	b.mu.Unlock()

	metrics.AttachedBuses.Inc()
	b.logger.Debug("bus attached", "wildcard", opts.Wildcard)
	return b, nil
}

// ID returns the instance id.
func (b *Bus) ID() string { return b.id }

// State returns the current attachment state.
func (b *Bus) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Attached reports whether the bus still holds its channel.
func (b *Bus) Attached() bool {
	return b.State() == StateAttached
}

// Send sends topic with args to the peer. Only a trailing argument of type
// func(error) (Callback) is taken as the completion callback and never
// transmitted. Any other func value, including func() or a named func type,
// is sent as data; use SendCall to pass a callback explicitly.
func (b *Bus) Send(topic string, args ...any) error {
	call := Call{Topic: topic, Args: args}
	if n := len(args); n > 0 {
		if done, ok := args[n-1].(func(error)); ok {
			call.Args = args[:n-1]
			call.Done = done
		}
	}
	return b.SendCall(call)
}

// SendCall encodes c into one wire message and hands it to the channel.
// Channel errors are returned as is; nothing is retried.
func (b *Bus) SendCall(c Call) error {
	if c.Topic == "" {
		metrics.IncSendError("empty_topic")
		return ErrEmptyTopic
	}

	b.mu.Lock()
	ch := b.ch
	b.mu.Unlock()
	if ch == nil {
		metrics.IncSendError("detached")
		return ErrDetached
	}

	msg, shape := b.encode(c)
	if err := ch.Send(msg, c.Done); err != nil {
		metrics.IncSendError("channel")
		return err
	}
	metrics.IncSent(shape)
	return nil
}

func (b *Bus) encode(c Call) (channel.Message, string) {
	if len(c.Args) > 0 {
		if d, ok := handle.Classify(c.Args[0]); ok {
			if dropped := len(c.Args) - 1; dropped > 0 {
				b.logger.Debug("dropping arguments after handle",
					"topic", c.Topic, "handle", d.String(), "dropped", dropped)
				metrics.AddDroppedArgs(dropped)
			}
			return channel.Message{Payload: c.Topic, Handle: c.Args[0]}, metrics.ShapeHandle
		}
	}

	payload := make([]any, 0, len(c.Args)+1)
	payload = append(payload, c.Topic)
	payload = append(payload, c.Args...)
	return channel.Message{Payload: payload}, metrics.ShapeSequence
}

// ForwardError sends err to the peer as an "error" event with a stack trace.
func (b *Bus) ForwardError(err error) error {
	if err == nil {
		return nil
	}
	return b.SendCall(Call{
		Topic: ErrorTopic,
		Args:  []any{err.Error(), string(debug.Stack())},
	})
}

// RecoverAndForward is meant to be deferred. It forwards a recovered panic to
// the peer as an "error" event, waits up to wait for the send to be
// acknowledged and then panics again with the original value.
func (b *Bus) RecoverAndForward(wait time.Duration) {
	r := recover()
	if r == nil {
		return
	}

	acked := make(chan struct{})
	err := b.SendCall(Call{
		Topic: ErrorTopic,
		Args:  []any{fmt.Sprint(r), string(debug.Stack())},
		Done:  func(error) { close(acked) },
	})
	if err == nil {
		timer := time.NewTimer(wait)
		select {
		case <-acked:
		case <-timer.C:
			b.logger.Warn("peer did not acknowledge forwarded panic", "wait", wait)
		}
		timer.Stop()
	}
	panic(r)
}

// Detach releases the channel without emitting "exit". Calling it more than
// once, or after the channel terminated, does nothing.
func (b *Bus) Detach() {
	b.mu.Lock()
	detached := b.detachLocked()
	b.mu.Unlock()
	if detached {
		b.logger.Debug("bus detached")
	}
}

// detachLocked removes both channel listeners and drops the channel. It
// reports whether this call performed the transition. Caller holds b.mu.
func (b *Bus) detachLocked() bool {
	if b.state == StateDetached {
		return false
	}
	b.state = StateDetached
	if b.ch != nil {
		// Removal results are ignored: the channel may already have dropped them.
		b.ch.RemoveListener(b.msgID)
		b.ch.RemoveListener(b.exitID)
	}
	b.ch = nil
	metrics.AttachedBuses.Dec()
	return true
}

func (b *Bus) handleExit(code int) {
	b.mu.Lock()
	detached := b.detachLocked()
	b.mu.Unlock()
	if !detached {
		return
	}

	metrics.ExitsTotal.Inc()
	b.logger.Info("channel exited", "code", code)
	if b.tap != nil {
		b.tap.Publish(ExitTopic, []any{code})
	}
	b.emitter.Emit(ExitTopic, code)
}

func (b *Bus) handleMessage(msg channel.Message) {
	if !b.Attached() {
		return
	}

	topic, args, shape, ok := decode(msg)
	if !ok {
		b.logger.Warn("dropping inbound message without topic", "payload", msg.Payload)
		return
	}

	metrics.IncReceived(shape)
	if b.tap != nil {
		b.tap.Publish(topic, args)
	}
	b.emitter.Emit(topic, args...)
}

// decode turns a wire message back into a topic and positional arguments.
// A sequence is [topic, args...]; anything else is the topic itself,
// followed by the handle when one arrived.
func decode(msg channel.Message) (string, []any, string, bool) {
	if seq, ok := msg.Payload.([]any); ok {
		if len(seq) == 0 {
			return "", nil, "", false
		}
		return topicOf(seq[0]), seq[1:], metrics.ShapeSequence, true
	}

	if msg.Handle != nil {
		return topicOf(msg.Payload), []any{msg.Handle}, metrics.ShapeHandle, true
	}
	return topicOf(msg.Payload), nil, metrics.ShapeBare, true
}

func topicOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
