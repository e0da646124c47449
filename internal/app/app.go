// Package app assembles the service from configuration and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/bgremover/internal/closer"
	"github.com/yokitheyo/bgremover/internal/config"
	"github.com/yokitheyo/bgremover/internal/domain"
	httpHandler "github.com/yokitheyo/bgremover/internal/handler/http"
	"github.com/yokitheyo/bgremover/internal/infrastructure/kafka"
	"github.com/yokitheyo/bgremover/internal/infrastructure/remover"
	"github.com/yokitheyo/bgremover/internal/infrastructure/storage"
	"github.com/yokitheyo/bgremover/internal/repository"
	"github.com/yokitheyo/bgremover/internal/usecase"
	"github.com/yokitheyo/bgremover/internal/worker"
)

type App struct {
	cfg    *config.Config
	server *http.Server
	closer *closer.Closer
}

// New connects the store and builds every component. Resources opened before
// a failure are released before New returns.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	c := closer.New(0)
	defer func() {
		if err != nil {
			if cerr := c.Close(context.Background()); cerr != nil {
				zlog.Logger.Warn().Err(cerr).Msg("cleanup after failed startup")
			}
		}
	}()

	repo, err := repository.NewStatusRepository(ctx, &cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("status store: %w", err)
	}
	c.AddNamed("status store", func(context.Context) error { return repo.Close() })

	bg, err := remover.New(&cfg.Processing)
	if err != nil {
		return nil, fmt.Errorf("remover: %w", err)
	}

	var archive domain.StorageService
	if cfg.Storage.Enabled {
		archive, err = storage.New(&cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("archive storage: %w", err)
		}
	}

	var events domain.EventPublisher
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(&cfg.Kafka)
		c.AddNamed("kafka producer", func(context.Context) error { return producer.Close() })
		events = producer
	}

	pool := worker.NewPool(cfg.Processing.Workers, cfg.Processing.MaxQueue)
	removal := usecase.NewRemovalUsecase(bg, pool, archive, events)
	c.AddNamed("background work", removal.Wait)
	c.AddNamed("worker pool", pool.Shutdown)

	engine := httpHandler.NewRouter(
		httpHandler.RouterConfig{
			APIPrefix:       cfg.Server.APIPrefix,
			MaxUploadSizeMB: cfg.Server.MaxUploadSizeMB,
		},
		removal,
		usecase.NewStatusUsecase(repo),
		pool,
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}
	c.AddNamed("http server", srv.Shutdown)

	return &App{cfg: cfg, server: srv, closer: c}, nil
}

// Run serves until ctx is done or the listener fails, then shuts down the
// HTTP server, the worker pool, background work, the event producer and the
// store, in that order.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		zlog.Logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		zlog.Logger.Info().Msg("Shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := a.closer.Close(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("shutdown incomplete")
		return errors.Join(runErr, err)
	}
	zlog.Logger.Info().Msg("API shutdown complete")
	return runErr
}

// Handler exposes the router for in-process use.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}
