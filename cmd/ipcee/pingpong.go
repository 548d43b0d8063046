package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattjoyce/ipcee/internal/admin"
	"github.com/mattjoyce/ipcee/internal/bus"
	"github.com/mattjoyce/ipcee/internal/channel/stream"
	"github.com/mattjoyce/ipcee/internal/config"
	"github.com/mattjoyce/ipcee/internal/events"
	"github.com/mattjoyce/ipcee/internal/log"
)

// responder answers the pingpong topics on one bus.
//
//	ping      -> pong     (same args)
//	ping.me   -> me.pong  (same args)
//	fail      -> forwarded "error" event
//	panic     -> forwarded "error" event, then the process crashes
//	quit      -> bye, then exit with the requested code
type responder struct {
	bus        *bus.Bus
	logger     *slog.Logger
	ackTimeout time.Duration

	quit   chan int
	closed chan int
}

func newResponder(b *bus.Bus, ackTimeout time.Duration, logger *slog.Logger) *responder {
	return &responder{
		bus:        b,
		logger:     logger,
		ackTimeout: ackTimeout,
		quit:       make(chan int, 1),
		closed:     make(chan int, 1),
	}
}

func (r *responder) register() {
	r.bus.On("ping", func(args ...any) { r.reply("pong", args) })
	r.bus.On("ping.me", func(args ...any) { r.reply("me.pong", args) })

	r.bus.On("fail", func(args ...any) {
		msg := "failure requested"
		if len(args) > 0 {
			msg = fmt.Sprint(args[0])
		}
		if err := r.bus.ForwardError(errors.New(msg)); err != nil {
			r.logger.Warn("failed to forward error", "error", err)
		}
	})

	r.bus.On("panic", func(args ...any) {
		defer r.bus.RecoverAndForward(r.ackTimeout)
		panic(fmt.Sprint(args...))
	})

	r.bus.On("quit", func(args ...any) {
		code := exitCodeArg(args)
		err := r.bus.Send("bye", code, func(error) { notify(r.quit, code) })
		if err != nil {
			notify(r.quit, code)
		}
	})

	r.bus.On(bus.ExitTopic, func(args ...any) { notify(r.closed, exitCodeArg(args)) })
}

func (r *responder) reply(topic string, args []any) {
	if err := r.bus.Send(topic, args...); err != nil {
		r.logger.Warn("reply failed", "topic", topic, "error", err)
	}
}

func notify(ch chan int, code int) {
	select {
	case ch <- code:
	default:
	}
}

// exitCodeArg reads an exit code from the first argument. JSON numbers
// arrive as float64.
func exitCodeArg(args []any) int {
	if len(args) == 0 {
		return 0
	}
	switch v := args[0].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func runPingpong(args []string) int {
	fs := flag.NewFlagSet("pingpong", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to a YAML or TOML config file")
	wildcard := fs.Bool("wildcard", false, "Enable wildcard topic matching")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg := config.Defaults()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			return 1
		}
		cfg = loaded
	}
	if *wildcard {
		cfg.Bus.Wildcard = true
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("pingpong")

	ch := stream.New(os.Stdin, os.Stdout, stream.WithLimits(cfg.Stream.Limits()))

	var hub *events.Hub
	var opts []bus.Option
	if cfg.Admin.Enabled {
		hub = events.NewHub(cfg.Admin.EventBuffer)
		opts = append(opts, bus.WithTap(hub))
	}

	b, err := bus.Adapt(ch, cfg.Bus, opts...)
	if err != nil {
		logger.Error("failed to adapt stdio channel", "error", err)
		return 1
	}
	r := newResponder(b, cfg.Stream.AckTimeout, logger)
	r.register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Admin.Enabled {
		srv := admin.New(admin.Config{Listen: cfg.Admin.Listen, APIKey: cfg.Admin.APIKey}, b, hub, log.WithComponent("admin"))
		go func() {
			if err := srv.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("admin server stopped", "error", err)
			}
		}()
	}

	logger.Info("pingpong ready", "bus_id", b.ID(), "wildcard", cfg.Bus.Wildcard)

	select {
	case code := <-r.quit:
		logger.Info("quit requested", "code", code)
		return code
	case <-r.closed:
		if err := ch.Close(); err != nil {
			logger.Warn("closing stdio channel", "error", err)
		}
		return 0
	case <-ctx.Done():
		logger.Info("signal received, exiting")
		return 0
	}
}
