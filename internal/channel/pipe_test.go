package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting")
	}
}

func TestPipeDeliversInOrder(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	a, b := NewPipe()

	got := make(chan Message, 16)
	b.AddMessageListener(func(m Message) { got <- m })

	for i := range 10 {
		require.NoError(t, a.Send(Message{Payload: []any{"n", i}}, nil))
	}

	for i := range 10 {
		select {
		case m := <-got:
			assert.Equal(t, []any{"n", i}, m.Payload)
		case <-time.After(2 * time.Second):
			t.Fatalf("message %d not delivered", i)
		}
	}

	a.Close(0)
	waitClosed(t, a.Done())
	waitClosed(t, b.Done())
}

func TestPipeDoneFiresAfterListeners(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	a, b := NewPipe()
	var seen bool
	b.AddMessageListener(func(Message) { seen = true })

	acked := make(chan error, 1)
	require.NoError(t, a.Send(Message{Payload: []any{"ping"}}, func(err error) {
		assert.True(t, seen, "listener ran before ack")
		acked <- err
	}))

	select {
	case err := <-acked:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ack not delivered")
	}

	b.Close(0)
	waitClosed(t, a.Done())
	waitClosed(t, b.Done())
}

func TestPipeCloseDrainsThenNotifiesBothEnds(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	a, b := NewPipe()

	var order []string
	b.AddMessageListener(func(m Message) { order = append(order, m.Payload.([]any)[0].(string)) })
	b.AddExitListener(func(code int) { order = append(order, "exit") })

	aExit := make(chan int, 1)
	a.AddExitListener(func(code int) { aExit <- code })

	require.NoError(t, a.Send(Message{Payload: []any{"one"}}, nil))
	require.NoError(t, a.Send(Message{Payload: []any{"two"}}, nil))
	a.Close(3)
	a.Close(4)

	waitClosed(t, b.Done())
	assert.Equal(t, []string{"one", "two", "exit"}, order)
	assert.Equal(t, 3, <-aExit)
	waitClosed(t, a.Done())

	assert.ErrorIs(t, a.Send(Message{Payload: []any{"late"}}, nil), ErrClosed)
	assert.ErrorIs(t, b.Send(Message{Payload: []any{"late"}}, nil), ErrClosed)
}

func TestPipeHandlesPassByReference(t *testing.T) {
	a, b := NewPipe()
	defer a.Close(0)

	type fakeHandle struct{ n int }
	h := &fakeHandle{n: 7}

	got := make(chan Message, 1)
	b.AddMessageListener(func(m Message) { got <- m })
	require.NoError(t, a.Send(Message{Payload: "server", Handle: h}, nil))

	m := <-got
	assert.Equal(t, "server", m.Payload)
	assert.Same(t, h, m.Handle)
}

func TestPipeWithoutIPC(t *testing.T) {
	a, b := NewPipe(WithIPC(false))
	defer a.Close(0)

	assert.False(t, a.IPCEnabled())
	assert.False(t, b.IPCEnabled())
	assert.ErrorIs(t, a.Send(Message{Payload: []any{"x"}}, nil), ErrIPCDisabled)
	assert.Equal(t, "pipe:a", a.String())
}

func TestRegistryRemoval(t *testing.T) {
	var r Registry
	var calls []string

	m := r.AddMessageListener(func(Message) { calls = append(calls, "msg") })
	x := r.AddExitListener(func(int) { calls = append(calls, "exit") })
	assert.Equal(t, 2, r.Len())

	r.DispatchMessage(Message{})
	r.DispatchExit(0)
	assert.Equal(t, []string{"msg", "exit"}, calls)

	assert.True(t, r.RemoveListener(m))
	assert.False(t, r.RemoveListener(m))
	assert.True(t, r.RemoveListener(x))
	assert.False(t, r.RemoveListener(ListenerID(999)))
	assert.Equal(t, 0, r.Len())

	r.DispatchMessage(Message{})
	r.DispatchExit(1)
	assert.Len(t, calls, 2)
}

func TestNilEndpointReportsNoIPC(t *testing.T) {
	var e *Endpoint
	assert.False(t, e.IPCEnabled())
}
