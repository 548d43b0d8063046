package channel

import (
	"sync"
)

type delivery struct {
	msg  Message
	done func(error)
	exit bool
	code int
}

type pipeState struct {
	mu     sync.Mutex
	closed bool
}

// Endpoint is one end of an in-memory pipe. Handles are passed by reference.
type Endpoint struct {
	Registry

	name  string
	ipc   bool
	state *pipeState
	peer  *Endpoint

	qmu     sync.Mutex
	cond    *sync.Cond
	queue   []delivery
	stopped chan struct{}
}

// PipeOption configures NewPipe.
type PipeOption func(*pipeConfig)

type pipeConfig struct {
	ipc bool
}

// WithIPC toggles the send capability reported by both endpoints.
func WithIPC(enabled bool) PipeOption {
	return func(c *pipeConfig) { c.ipc = enabled }
}

// NewPipe returns two connected endpoints. Each endpoint delivers inbound
// notifications from its own goroutine, in send order.
func NewPipe(opts ...PipeOption) (*Endpoint, *Endpoint) {
	cfg := pipeConfig{ipc: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	state := &pipeState{}
	a := newEndpoint("a", cfg.ipc, state)
	b := newEndpoint("b", cfg.ipc, state)
	a.peer, b.peer = b, a

	go a.loop()
	go b.loop()
	return a, b
}

func newEndpoint(name string, ipc bool, state *pipeState) *Endpoint {
	e := &Endpoint{
		name:    name,
		ipc:     ipc,
		state:   state,
		stopped: make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.qmu)
	return e
}

// IPCEnabled implements IPCReporter. A nil endpoint cannot send.
func (e *Endpoint) IPCEnabled() bool {
	return e != nil && e.ipc
}

// Send queues msg for delivery to the peer. done runs on the peer's delivery
// goroutine after its message listeners returned.
func (e *Endpoint) Send(msg Message, done func(error)) error {
	if !e.ipc {
		return ErrIPCDisabled
	}

	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	if e.state.closed {
		return ErrClosed
	}
	e.peer.enqueue(delivery{msg: msg, done: done})
	return nil
}

// Close terminates the pipe. Messages already queued are delivered first;
// then both endpoints notify their exit listeners with code. Closing twice is
// a no-op.
func (e *Endpoint) Close(code int) {
	e.state.mu.Lock()
	defer e.state.mu.Unlock()
	if e.state.closed {
		return
	}
	e.state.closed = true
	e.enqueue(delivery{exit: true, code: code})
	e.peer.enqueue(delivery{exit: true, code: code})
}

// Done is closed once the endpoint's delivery goroutine has exited.
func (e *Endpoint) Done() <-chan struct{} {
	return e.stopped
}

func (e *Endpoint) String() string {
	return "pipe:" + e.name
}

func (e *Endpoint) enqueue(d delivery) {
	e.qmu.Lock()
	e.queue = append(e.queue, d)
	e.qmu.Unlock()
	e.cond.Signal()
}

func (e *Endpoint) loop() {
	defer close(e.stopped)
	for {
		e.qmu.Lock()
		for len(e.queue) == 0 {
			e.cond.Wait()
		}
		d := e.queue[0]
		e.queue[0] = delivery{}
		e.queue = e.queue[1:]
		e.qmu.Unlock()

		if d.exit {
			e.DispatchExit(d.code)
			return
		}
		e.DispatchMessage(d.msg)
		if d.done != nil {
			d.done(nil)
		}
	}
}

var (
	_ Channel     = (*Endpoint)(nil)
	_ IPCReporter = (*Endpoint)(nil)
)
