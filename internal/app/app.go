package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/chrissnell/hydrosim/internal/controllers/restserver"
	"github.com/chrissnell/hydrosim/internal/managers"
	"github.com/chrissnell/hydrosim/internal/metrics"
	"github.com/chrissnell/hydrosim/internal/storage"
	"github.com/chrissnell/hydrosim/pkg/config"
)

const defaultMaxParallel = 4

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	config         *config.ConfigData
	store          storage.ResultStore
	registry       *prometheus.Registry
	metrics        *metrics.Metrics
	logger         *zap.SugaredLogger
}

// New loads the configuration and opens the result store
func New(ctx context.Context, configProvider config.ConfigProvider, logger *zap.SugaredLogger) (*App, error) {
	cfg, err := configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	store, err := managers.NewResultStore(ctx, &cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		configProvider: configProvider,
		config:         cfg,
		store:          store,
		registry:       registry,
		metrics:        metrics.New(registry),
		logger:         logger,
	}, nil
}

// Config returns the loaded configuration
func (a *App) Config() *config.ConfigData {
	return a.config
}

// Close releases the result store
func (a *App) Close() error {
	return a.store.Close()
}

// Serve starts the REST server and blocks until shutdown
func (a *App) Serve(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	deps := restserver.Dependencies{
		Store:    a.store,
		Metrics:  a.metrics,
		Gatherer: a.registry,
	}
	cm, err := managers.NewControllerManager(ctx, &wg, a.configProvider, deps, a.logger)
	if err != nil {
		return err
	}
	if err := cm.StartControllers(); err != nil {
		return err
	}

	a.logger.Info("Application started successfully")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	cancel()

	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
