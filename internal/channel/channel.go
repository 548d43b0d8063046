// Package channel defines the raw, ordered, single-pipe message channel a bus
// is adapted over, and ships two implementations: an in-memory pipe pair and
// (in subpackage stream) a JSON-lines channel over a reader/writer pair.
package channel

import "errors"

//go:generate mockgen -destination=mocks/mock_channel.go -package=mocks github.com/mattjoyce/ipcee/internal/channel Notifier,Channel

// Message is one wire message.
//
// Sequence shape: Payload is []any{topic, arg0, ...} and Handle is nil.
// Handle shape: Payload is the bare topic and Handle is one transferable endpoint.
type Message struct {
	Payload any
	Handle  any
}

// MessageListener receives inbound messages in channel order.
type MessageListener func(Message)

// ExitListener receives the termination notification and its exit code.
type ExitListener func(code int)

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

// Notifier is the inbound half of a channel.
type Notifier interface {
	AddMessageListener(fn MessageListener) ListenerID
	AddExitListener(fn ExitListener) ListenerID
	// RemoveListener reports whether id was registered. Unknown ids are ignored.
	RemoveListener(id ListenerID) bool
}

// Sender is the outbound capability. done, when non-nil, is called once the
// channel has delivered or written the message, or with the error that
// prevented it. An error returned synchronously means done is never called.
type Sender interface {
	Send(msg Message, done func(error)) error
}

// Channel is a notifier that can also send.
type Channel interface {
	Notifier
	Sender
}

// IPCReporter is implemented by channels whose send capability can be switched off.
type IPCReporter interface {
	IPCEnabled() bool
}

var (
	// ErrClosed is returned when sending on a terminated channel.
	ErrClosed = errors.New("channel: closed")
	// ErrHandleUnsupported is returned by channels that can only carry data.
	ErrHandleUnsupported = errors.New("channel: handle transfer not supported")
	// ErrIPCDisabled is returned by Send on a channel built without IPC.
	ErrIPCDisabled = errors.New("channel: ipc disabled")
)
