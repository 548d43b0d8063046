// Package stream is a channel carrying JSON-lines messages over a reader and
// writer pair, typically a child process's stdin and stdout.
//
// One goroutine decodes inbound lines and delivers them in order; another
// drains the outbox so Send never blocks on I/O. Handles cannot cross a byte
// stream, so handle sends fail with channel.ErrHandleUnsupported.
package stream

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/ipcee/internal/channel"
	"github.com/mattjoyce/ipcee/internal/log"
	"github.com/mattjoyce/ipcee/internal/protocol"
)

type outItem struct {
	payload any
	done    func(error)
}

// Channel is a JSON-lines channel. Create it with New.
type Channel struct {
	channel.Registry

	r        io.Reader
	w        io.Writer
	limits   protocol.Limits
	exitCode func(error) int
	logger   *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	outbox  []outItem
	closed  bool
	closing bool

	exitOnce  sync.Once
	g         errgroup.Group
	writeDone chan struct{}
}

// Option configures New.
type Option func(*Channel)

// WithLimits overrides the codec limits.
func WithLimits(l protocol.Limits) Option {
	return func(c *Channel) { c.limits = l }
}

// WithExitCode sets how the exit code is derived when the inbound stream
// ends. readErr is nil on a clean EOF.
func WithExitCode(fn func(readErr error) int) Option {
	return func(c *Channel) { c.exitCode = fn }
}

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) { c.logger = l }
}

// New starts a channel reading from r and writing to w.
func New(r io.Reader, w io.Writer, opts ...Option) *Channel {
	c := &Channel{
		r:        r,
		w:        w,
		limits:   protocol.DefaultLimits(),
		exitCode: defaultExitCode,
		logger:    log.WithComponent("stream"),
		writeDone: make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)
	for _, opt := range opts {
		opt(c)
	}

	c.g.Go(c.readLoop)
	c.g.Go(c.writeLoop)
	return c
}

func defaultExitCode(readErr error) int {
	if readErr != nil {
		return 1
	}
	return 0
}

// IPCEnabled implements channel.IPCReporter. A nil channel cannot send.
func (c *Channel) IPCEnabled() bool {
	return c != nil && c.w != nil
}

// Send queues msg for writing. done runs on the writer goroutine after the
// line was written, or with the write error.
func (c *Channel) Send(msg channel.Message, done func(error)) error {
	if c.w == nil {
		return channel.ErrIPCDisabled
	}
	if msg.Handle != nil {
		return channel.ErrHandleUnsupported
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return channel.ErrClosed
	}
	c.outbox = append(c.outbox, outItem{payload: msg.Payload, done: done})
	c.cond.Broadcast()
	return nil
}

// Close flushes queued messages, closes the underlying reader and writer when
// they implement io.Closer, and waits for both goroutines. Exit listeners are
// notified with code 0 unless the peer ended the stream first. Close must not
// be called from a listener.
//
// A reader that is not an io.Closer cannot be interrupted: Close then waits
// for the writer only, and the reader goroutine delivers nothing more and
// returns at its next read. Use Wait to block until it has.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closing {
		c.mu.Unlock()
		return c.waitClosed()
	}
	c.closing = true
	c.closed = true
	c.cond.Broadcast()
	c.mu.Unlock()

	var errs []error
	if wc, ok := c.w.(io.Closer); ok {
		// Wait for the writer to drain before closing its destination.
		c.waitOutboxDrained()
		if err := wc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer: %w", err))
		}
	}
	if rc, ok := c.r.(io.Closer); ok {
		if err := rc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close reader: %w", err))
		}
	} else {
		c.terminate(nil)
	}
	if err := c.waitClosed(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Channel) waitClosed() error {
	if _, ok := c.r.(io.Closer); ok {
		return c.g.Wait()
	}
	<-c.writeDone
	return nil
}

// Wait blocks until both goroutines have exited.
func (c *Channel) Wait() error {
	return c.g.Wait()
}

func (c *Channel) waitOutboxDrained() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.outbox) > 0 {
		c.cond.Wait()
	}
}

func (c *Channel) readLoop() error {
	dec := protocol.NewDecoder(c.r, c.limits)
	for {
		payload, err := dec.Decode()
		switch {
		case err == nil:
			if c.isClosing() {
				continue
			}
			c.DispatchMessage(channel.Message{Payload: payload})
		case errors.Is(err, protocol.ErrEmptyMessage):
			continue
		case errors.Is(err, io.EOF):
			c.terminate(nil)
			return nil
		case errors.Is(err, protocol.ErrMessageTooLarge):
			c.logger.Error("inbound message over limit, closing channel", "error", err)
			c.terminate(err)
			return err
		case errors.Is(err, protocol.ErrMalformedMessage):
			c.logger.Warn("dropping malformed message", "error", err)
			continue
		default:
			c.terminate(err)
			if c.isClosing() {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
	}
}

func (c *Channel) writeLoop() error {
	defer close(c.writeDone)
	for {
		c.mu.Lock()
		for len(c.outbox) == 0 && !c.closed {
			c.cond.Wait()
		}
		if len(c.outbox) == 0 {
			c.mu.Unlock()
			return nil
		}
		item := c.outbox[0]
		c.mu.Unlock()

		err := protocol.EncodeMessage(c.w, item.payload, c.limits)
		if err != nil {
			c.logger.Warn("send failed", "error", err)
		}

		c.mu.Lock()
		c.outbox[0] = outItem{}
		c.outbox = c.outbox[1:]
		c.cond.Broadcast()
		c.mu.Unlock()

		if item.done != nil {
			item.done(err)
		}
	}
}

func (c *Channel) isClosing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing
}

// terminate stops accepting sends and notifies exit listeners once.
func (c *Channel) terminate(readErr error) {
	c.mu.Lock()
	c.closed = true
	closing := c.closing
	c.cond.Broadcast()
	c.mu.Unlock()

	c.exitOnce.Do(func() {
		code := 0
		if !closing {
			code = c.exitCode(readErr)
		}
		c.logger.Debug("stream ended", "code", code, "error", readErr)
		c.DispatchExit(code)
	})
}

var (
	_ channel.Channel     = (*Channel)(nil)
	_ channel.IPCReporter = (*Channel)(nil)
)
