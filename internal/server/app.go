// Package server wires the reference backend together: storage, the sync
// archive, the sales service and the REST API.
package server

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/possync/internal/logging"
	"github.com/dmitrijs2005/possync/internal/server/archive"
	"github.com/dmitrijs2005/possync/internal/server/config"
	"github.com/dmitrijs2005/possync/internal/server/httpapi"
	"github.com/dmitrijs2005/possync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/possync/internal/server/services"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config *config.Config
	logger logging.Logger
	repos  repomanager.RepositoryManager
	server *httpapi.Server
}

// newRepositoryManager is a seam so tests can run without Postgres.
var newRepositoryManager = func(cfg *config.Config) (repomanager.RepositoryManager, error) {
	if cfg.InMemory() {
		return repomanager.NewInMemoryRepositoryManager(), nil
	}
	return repomanager.NewPostgresRepositoryManager(cfg.DatabaseDSN)
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	repos, err := newRepositoryManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := repos.RunMigrations(ctx); err != nil {
		_ = repos.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	var arch archive.Archiver = archive.Noop{}
	if cfg.ArchiveBucket != "" {
		s3a, err := archive.NewS3Archiver(ctx, cfg)
		if err != nil {
			_ = repos.Close()
			return nil, fmt.Errorf("archive init error: %w", err)
		}
		arch = s3a
		logger.Info(ctx, "sync batches are archived", "bucket", cfg.ArchiveBucket)
	}

	svc := services.NewSalesService(repos, arch, logger)
	h := httpapi.NewHandler(svc, repos, logger)
	router := httpapi.NewRouter(h, logger, cfg.CORSAllowOrigins)

	return &App{
		config: cfg,
		logger: logger,
		repos:  repos,
		server: httpapi.NewServer(cfg.HTTPAddr, router, logger, cfg.ShutdownTimeout),
	}, nil
}

// Run serves the API until ctx is cancelled.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...", "storage", storageName(app.config))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.server.Run(ctx)
	})
	return g.Wait()
}

func (app *App) Close() error {
	return app.repos.Close()
}

func storageName(cfg *config.Config) string {
	if cfg.InMemory() {
		return "memory"
	}
	return "postgres"
}
