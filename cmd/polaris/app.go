package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/afero"

	"github.com/elee1766/polaris/src/aisdk"
	"github.com/elee1766/polaris/src/blob"
	"github.com/elee1766/polaris/src/config"
	"github.com/elee1766/polaris/src/events"
	"github.com/elee1766/polaris/src/fetch"
	"github.com/elee1766/polaris/src/network"
	"github.com/elee1766/polaris/src/orclient"
	"github.com/elee1766/polaris/src/polarisagent"
	"github.com/elee1766/polaris/src/signal"
	"github.com/elee1766/polaris/src/storage"
	"github.com/elee1766/polaris/src/workflow"
)

// app holds the components every command shares. Close releases them in
// reverse order of creation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db    *storage.DB
	blobs blob.Store
	repo  *storage.Repository

	closers []func() error
}

func openApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	db, err := storage.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db
	a.closers = append(a.closers, db.Close)

	blobs, err := a.openBlobs(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.blobs = blobs
	a.repo = storage.NewRepository(db.DB(), blobs, logger)
	return a, nil
}

func (a *app) openBlobs(ctx context.Context) (blob.Store, error) {
	switch a.cfg.Blob.Driver {
	case "minio":
		return blob.NewMinioStore(ctx, *a.cfg.Blob.Minio, a.logger)
	default:
		return blob.NewAferoStore(afero.NewOsFs(), a.cfg.Blob.Root, a.logger)
	}
}

// openBus returns the configured event bus. It is closed with the app.
func (a *app) openBus(ctx context.Context) (events.Bus, error) {
	var bus events.Bus
	switch a.cfg.Bus.Driver {
	case "kafka":
		kb := events.NewKafkaBus(*a.cfg.Bus.Kafka, a.logger)
		if err := kb.EnsureTopic(ctx); err != nil {
			kb.Close()
			return nil, err
		}
		bus = kb
	default:
		bus = events.NewMemoryBus(a.cfg.Bus.Buffer, a.logger)
	}
	a.closers = append(a.closers, bus.Close)
	return bus, nil
}

// openSignals connects the cross-process cancel store, or returns nil when
// redis is not configured.
func (a *app) openSignals(ctx context.Context) (*signal.RedisSignal, error) {
	if a.cfg.Redis == nil {
		return nil, nil
	}
	client, err := signal.NewRedisClient(ctx, *a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	return signal.NewRedisSignal(redis.UniversalClient(client), a.logger), nil
}

func (a *app) client() *orclient.Client {
	api := a.cfg.API
	return orclient.NewClient(orclient.Config{
		APIKey:     api.APIKey,
		BaseURL:    api.BaseURL,
		Logger:     a.logger,
		Timeout:    api.Timeout,
		RetryCount: api.Retries,
		RetryDelay: api.RetryDelay,
		SiteURL:    api.SiteURL,
		SiteName:   api.SiteName,
	})
}

func (a *app) models(ctx context.Context) (coding, title aisdk.ModelClient, err error) {
	client := a.client()
	coding, err = client.Model(ctx, a.cfg.Agent.Model)
	if err != nil {
		return nil, nil, err
	}
	if a.cfg.Agent.TitleModel == "" {
		return coding, coding, nil
	}
	title, err = client.Model(ctx, a.cfg.Agent.TitleModel)
	if err != nil {
		return nil, nil, err
	}
	return coding, title, nil
}

func (a *app) engine(signals workflow.CancelSource) *workflow.Engine {
	return workflow.NewEngine(workflow.Config{
		DB:            a.db.DB(),
		Logger:        a.logger,
		Retries:       a.cfg.Workflow.Retries,
		RetryDelay:    a.cfg.Workflow.RetryDelay,
		MaxRetryDelay: a.cfg.Workflow.MaxRetryDelay,
		Signals:       signals,
	})
}

// processor registers the process-message function on engine.
func (a *app) processor(ctx context.Context, engine *workflow.Engine, sink network.EventSink) error {
	coding, title, err := a.models(ctx)
	if err != nil {
		return err
	}
	if a.cfg.Agent.InternalKey == "" {
		a.logger.Warn("internal key is not set, every run will fail", "env", "POLARIS_INTERNAL_KEY")
	}

	p := polarisagent.NewProcessor(polarisagent.Config{
		Store:             a.repo,
		Files:             a.repo.Files(),
		CodingModel:       coding,
		TitleModel:        title,
		Fetcher:           fetch.NewHTTPFetcher(a.cfg.Fetch.Timeout, a.logger),
		ScrapeConcurrency: a.cfg.Fetch.Concurrency,
		InternalKey:       a.cfg.Agent.InternalKey,
		SyncDelay:         a.cfg.Agent.SyncDelay,
		HistoryLimit:      a.cfg.Agent.HistoryLimit,
		MaxIter:           a.cfg.Agent.MaxIter,
		Events:            sink,
		Logger:            a.logger,
	})
	engine.Register(p.Function())
	return nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
