package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/ipcee/internal/bus"
	"github.com/mattjoyce/ipcee/internal/channel"
	"github.com/mattjoyce/ipcee/internal/channel/stream"
	"github.com/mattjoyce/ipcee/internal/emitter"
)

const helperEnv = "IPCEE_HELPER_PROCESS"

// TestHelperProcess is not a real test: the child tests re-exec the test
// binary into it so that it runs the pingpong command over real pipes.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		t.Skip("helper process only")
	}
	args := strings.Fields(os.Getenv(helperEnv + "_ARGS"))
	os.Exit(runCLI(append([]string{"pingpong"}, args...)))
}

type child struct {
	cmd *exec.Cmd
	ch  *stream.Channel
	bus *bus.Bus
}

// startChild spawns the pingpong helper and adapts a bus over its stdio.
// The exit code reported to the bus is the child's real exit status.
func startChild(t *testing.T, opts emitter.Options, childArgs ...string) *child {
	t.Helper()

	cmd := exec.Command(os.Args[0], "-test.run=^TestHelperProcess$")
	cmd.Env = append(os.Environ(), helperEnv+"=1", helperEnv+"_ARGS="+strings.Join(childArgs, " "))

	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	ch := stream.New(stdout, stdin, stream.WithExitCode(func(error) int {
		var exitErr *exec.ExitError
		if err := cmd.Wait(); errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		return cmd.ProcessState.ExitCode()
	}))

	b, err := bus.Adapt(ch, opts)
	require.NoError(t, err)

	c := &child{cmd: cmd, ch: ch, bus: b}
	t.Cleanup(func() {
		_ = ch.Close()
		if cmd.ProcessState == nil {
			_ = cmd.Process.Kill()
		}
	})
	return c
}

func recvArgs(t *testing.T, ch <-chan []any) []any {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for child")
		return nil
	}
}

func TestChildPingPong(t *testing.T) {
	c := startChild(t, emitter.DefaultOptions())

	pongs := make(chan []any, 1)
	c.bus.On("pong", func(args ...any) { pongs <- args })

	require.NoError(t, c.bus.Send("ping", map[string]any{"name": "a"}, []any{1, 2, 3}))
	args := recvArgs(t, pongs)
	assert.Equal(t, []any{map[string]any{"name": "a"}, []any{float64(1), float64(2), float64(3)}}, args)
}

func TestChildWildcardReply(t *testing.T) {
	c := startChild(t, emitter.Options{Wildcard: true})

	got := make(chan []any, 2)
	c.bus.On("*.pong", func(args ...any) { got <- args })

	// "pong" has one segment and must not match "*.pong".
	require.NoError(t, c.bus.Send("ping", "plain"))
	require.NoError(t, c.bus.Send("ping.me", "namespaced"))

	assert.Equal(t, []any{"namespaced"}, recvArgs(t, got))
	select {
	case args := <-got:
		t.Fatalf("unexpected match: %v", args)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestChildWildcardListener(t *testing.T) {
	c := startChild(t, emitter.DefaultOptions(), "--wildcard")

	pongs := make(chan []any, 1)
	c.bus.On("me.pong", func(args ...any) { pongs <- args })

	require.NoError(t, c.bus.Send("ping.me"))
	assert.Empty(t, recvArgs(t, pongs))
}

func TestChildErrorForwarding(t *testing.T) {
	c := startChild(t, emitter.Options{StrictErrors: true})

	errs := make(chan []any, 1)
	c.bus.Once(bus.ErrorTopic, func(args ...any) { errs <- args })

	require.NoError(t, c.bus.Send("fail", "Error: Test"))
	args := recvArgs(t, errs)
	require.Len(t, args, 2)
	assert.Equal(t, "Error: Test", args[0])
	assert.NotEmpty(t, args[1])
}

func TestChildQuitExitCode(t *testing.T) {
	c := startChild(t, emitter.DefaultOptions())

	byes := make(chan []any, 1)
	exits := make(chan []any, 2)
	c.bus.On("bye", func(args ...any) { byes <- args })
	c.bus.On(bus.ExitTopic, func(args ...any) { exits <- args })

	require.NoError(t, c.bus.Send("quit", 3))
	assert.Equal(t, []any{float64(3)}, recvArgs(t, byes))
	assert.Equal(t, []any{3}, recvArgs(t, exits))

	assert.ErrorIs(t, c.bus.Send("ping"), bus.ErrDetached)
	assert.False(t, c.bus.Attached())
}

func TestChildPanicIsForwardedThenCrashes(t *testing.T) {
	c := startChild(t, emitter.DefaultOptions())

	errs := make(chan []any, 1)
	exits := make(chan []any, 1)
	c.bus.On(bus.ErrorTopic, func(args ...any) { errs <- args })
	c.bus.On(bus.ExitTopic, func(args ...any) { exits <- args })

	require.NoError(t, c.bus.Send("panic", "kaboom"))
	assert.Equal(t, "kaboom", recvArgs(t, errs)[0])
	assert.Equal(t, []any{2}, recvArgs(t, exits), "an unrecovered panic exits with status 2")
}

func TestChildStdinClosedExitsCleanly(t *testing.T) {
	c := startChild(t, emitter.DefaultOptions())

	exits := make(chan []any, 1)
	c.bus.On(bus.ExitTopic, func(args ...any) { exits <- args })

	// Closing our end closes the child's stdin; the local exit reports 0.
	require.NoError(t, c.ch.Close())
	assert.Equal(t, []any{0}, recvArgs(t, exits))
	require.NoError(t, c.cmd.Wait())
	assert.Equal(t, 0, c.cmd.ProcessState.ExitCode())
}

func TestResponderOverPipe(t *testing.T) {
	a, b := channel.NewPipe()
	t.Cleanup(func() {
		a.Close(0)
		<-a.Done()
		<-b.Done()
	})

	parent, err := bus.Adapt(a, emitter.DefaultOptions())
	require.NoError(t, err)
	childBus, err := bus.Adapt(b, emitter.DefaultOptions())
	require.NoError(t, err)

	r := newResponder(childBus, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.register()

	pongs := make(chan []any, 1)
	parent.On("me.pong", func(args ...any) { pongs <- args })
	require.NoError(t, parent.Send("ping.me", 1))
	assert.Equal(t, []any{1}, recvArgs(t, pongs))

	require.NoError(t, parent.Send("quit", 4))
	select {
	case code := <-r.quit:
		assert.Equal(t, 4, code)
	case <-time.After(time.Second):
		t.Fatal("quit not signalled")
	}
}

func TestRunConfigCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ipcee.toml")
	require.NoError(t, os.WriteFile(path, []byte("[bus]\nwildcard = true\n"), 0o600))

	assert.Equal(t, 0, runCLI([]string{"config", "check", path}))
	assert.Equal(t, 1, runCLI([]string{"config", "check"}))
	assert.Equal(t, 1, runCLI([]string{"config", "check", filepath.Join(t.TempDir(), "missing.yaml")}))
	assert.Equal(t, 1, runCLI([]string{"config", "frobnicate"}))
}

func TestRunCLIUnknownCommand(t *testing.T) {
	assert.Equal(t, 1, runCLI(nil))
	assert.Equal(t, 1, runCLI([]string{"spawn"}))
	assert.Equal(t, 0, runCLI([]string{"version"}))
}

func TestExitCodeArg(t *testing.T) {
	assert.Equal(t, 0, exitCodeArg(nil))
	assert.Equal(t, 3, exitCodeArg([]any{3}))
	assert.Equal(t, 5, exitCodeArg([]any{float64(5)}))
	assert.Equal(t, 0, exitCodeArg([]any{"x"}))
}
