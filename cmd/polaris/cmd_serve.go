package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/elee1766/polaris/src/events"
	"github.com/elee1766/polaris/src/httpapi"
	"github.com/elee1766/polaris/src/polarisagent"
	"github.com/elee1766/polaris/src/workflow"
)

// ServeCmd runs the HTTP API, the bus consumer and the workflow engine
type ServeCmd struct {
	Addr     string `help:"Listen address (defaults to config)"`
	NoResume bool   `help:"Do not resume runs interrupted by a previous process"`
}

// Run executes the serve command
func (c *ServeCmd) Run(cli *CLI) error {
	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger := cli.cfg, cli.logger
	if c.Addr != "" {
		cfg.Server.Addr = c.Addr
	}

	a, err := openApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	bus, err := a.openBus(ctx)
	if err != nil {
		return err
	}
	signals, err := a.openSignals(ctx)
	if err != nil {
		return err
	}

	// a nil *RedisSignal must stay a nil interface
	var (
		cancels   workflow.CancelSource
		broadcast events.Broadcaster
	)
	if signals != nil {
		cancels, broadcast = signals, signals
	}
	engine := a.engine(cancels)
	if err := a.processor(ctx, engine, nil); err != nil {
		return err
	}
	defer engine.Wait()

	if !c.NoResume {
		n, err := engine.Resume(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("resumed interrupted runs", "count", n)
		}
	}

	dispatcher := events.NewDispatcher(engine, polarisagent.FunctionName, broadcast, logger)
	service := polarisagent.NewService(a.repo, bus, logger)
	server := httpapi.New(service, cfg.Server.Mode, logger)
	if checker, ok := a.blobs.(httpapi.HealthChecker); ok {
		server.AddCheck("blob", checker)
	}
	if signals != nil {
		server.AddCheck("redis", signals)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bus.Consume(gctx, dispatcher.Handle)
	})
	g.Go(func() error {
		return server.ListenAndServe(gctx, cfg.Server.Addr)
	})

	err = g.Wait()
	logger.Info("shutting down")
	return err
}
