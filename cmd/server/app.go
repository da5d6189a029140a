package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/phrazzld/asyncsql/internal/api"
	"github.com/phrazzld/asyncsql/internal/config"
	"github.com/phrazzld/asyncsql/internal/platform/postgres"
	"github.com/phrazzld/asyncsql/internal/platform/sqlite"
	"github.com/phrazzld/asyncsql/internal/task"
)

// shutdownTimeout bounds how long running queries may delay shutdown
const shutdownTimeout = 10 * time.Second

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	registry  *prometheus.Registry
	scheduler *task.Scheduler
	results   *api.ResultStore
	errLog    *task.FileErrorLog
}

// newApplication creates the scheduler, opens its connections and registers
// the result store as the delivery callback.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	driver, connCfg, err := newDriver(cfg.Database)
	if err != nil {
		return nil, err
	}

	results, err := api.NewResultStore(cfg.Host.ResultCacheSize, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app := &application{
		config:   cfg,
		logger:   logger,
		registry: registry,
		results:  results,
		errLog:   task.NewFileErrorLog(cfg.ErrorLog.Dir, cfg.Server.Port, logger),
	}

	app.scheduler = task.NewScheduler(
		driver,
		schedulerConfig(cfg.Scheduler),
		app.errLog,
		task.MustNewMetrics(registry),
		logger,
	)

	if err := app.scheduler.Initialize(ctx, connCfg, cfg.Scheduler.ConnectionCount, results); err != nil {
		return nil, fmt.Errorf("failed to initialize query scheduler: %w", err)
	}

	stats := app.scheduler.Stats()
	logger.Info("Query scheduler initialized",
		"driver", driver.Name(),
		"connections", stats.Connections,
		"requested_connections", cfg.Scheduler.ConnectionCount,
		"error_log", app.errLog.Path())

	return app, nil
}

// newDriver selects the database driver and builds the connection settings
// every pool slot uses.
func newDriver(cfg config.DatabaseConfig) (task.Driver, task.ConnectionConfig, error) {
	connCfg := task.ConnectionConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Name,
	}

	switch cfg.Driver {
	case "postgres":
		return postgres.NewDriver(), connCfg, nil
	case "sqlite":
		return sqlite.NewDriver(), connCfg, nil
	default:
		return nil, connCfg, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func schedulerConfig(cfg config.SchedulerConfig) task.SchedulerConfig {
	return task.SchedulerConfig{
		DispatchInterval: cfg.DispatchInterval,
		MaxPending:       cfg.MaxPending,
		MaxQueryLength:   cfg.MaxQueryLength,
		QueryTimeout:     cfg.QueryTimeout,
	}
}

// Run starts the host tick loop and the HTTP server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	tickCtx, stopTicks := context.WithCancel(ctx)
	ticksDone := make(chan struct{})
	go func() {
		defer close(ticksDone)
		app.runTicker(tickCtx)
	}()

	err := app.startHTTPServer(ctx, router)

	stopTicks()
	<-ticksDone
	app.cleanup()

	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// runTicker drives result delivery the way a host's frame loop would.
func (app *application) runTicker(ctx context.Context) {
	ticker := time.NewTicker(app.config.Host.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.scheduler.OnTick()
		}
	}
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.scheduler.Close(ctx); err != nil {
		app.logger.Error("Error closing query scheduler", "error", err)
	}

	app.logger.Info("Application shutdown completed")
}
