package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/markdave123-py/docreader/internal/api/handlers"
	"github.com/markdave123-py/docreader/internal/config"
	db "github.com/markdave123-py/docreader/internal/core/database"
	objectclient "github.com/markdave123-py/docreader/internal/core/object-client"
	"github.com/markdave123-py/docreader/internal/core/registry"
	"github.com/markdave123-py/docreader/internal/core/store"
	"github.com/markdave123-py/docreader/internal/services"
)

type App struct {
	Registry *registry.Registry
	Store    store.ResultStore
	Service  *services.ProcessService
	Server   *Server

	closers []func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	a := &App{Registry: registry.Default}

	st, err := a.openStore(appCtx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = st
	slog.Info("app.store.ready", "backend", cfg.ResultBackend)

	if err := RegisterTechnologies(a.Registry, cfg); err != nil {
		a.Close()
		return nil, err
	}
	for _, d := range a.Registry.List() {
		slog.Info("app.technology", "name", d.Name)
	}

	a.Service = services.NewProcessService(a.Registry, st, cfg.DefaultTechnology, cfg.Technologies)
	a.Server = NewServer(cfg, handlers.NewProcessHandler(a.Service, cfg.MaxUploadMB))
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config) (store.ResultStore, error) {
	switch cfg.ResultBackend {
	case config.BackendS3:
		client, err := objectclient.NewS3Client(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		return store.NewObjectStore(client, cfg.BucketName, cfg.StoragePrefix), nil
	case config.BackendGCS:
		client, err := objectclient.NewGCSClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs store: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return store.NewObjectStore(client, cfg.BucketName, cfg.StoragePrefix), nil
	case config.BackendPostgres:
		dbClient, err := db.NewDatabaseClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		a.closers = append(a.closers, dbClient.Close)
		return store.NewDBStore(dbClient), nil
	default:
		return store.NewFileStore(cfg.OutputDir)
	}
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("app.close", "err", err)
		}
	}
}
