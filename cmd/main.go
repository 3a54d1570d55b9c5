package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/padel/internal/adapters/http/api"
	"github.com/okian/padel/internal/adapters/http/site"
	"github.com/okian/padel/internal/adapters/http/swagger"
	repository "github.com/okian/padel/internal/adapters/repository"
	app "github.com/okian/padel/internal/app"
	"github.com/okian/padel/internal/config"
	"github.com/okian/padel/pkg/logger"
	"github.com/okian/padel/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	writeTimeoutSlack     = 5 * time.Second
	systemMetricsInterval = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is configured from cfg, so it is not available yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	metrics.Configure(metricsOptions(cfg)...)

	src, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}

	svc := newService(cfg, src, log)
	if err := svc.Start(ctx); err != nil {
		_ = src.Close()
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      cfg.RequestTimeout() + writeTimeoutSlack,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// openSource connects the configured storage backend.
func openSource(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Source, error) {
	opts := []repository.Option{repository.WithLogger(log)}

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pg, err := repository.OpenPostgres(ctx, cfg.DatabaseURL, append(opts, repository.WithMaxConns(int32(cfg.ResolveConcurrency*2)))...)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		return pg, nil
	case config.DriverSQLite:
		return repository.OpenSQLite(ctx, cfg.SQLitePath, opts...)
	}
	return nil, fmt.Errorf("storage driver %q: %w", cfg.StorageDriver, config.ErrInvalidConfig)
}

// newService builds the analytics service from cfg.
func newService(cfg *config.Config, src repository.Source, log logger.Logger) *app.Service {
	return app.New(
		app.WithSource(src),
		app.WithLogger(log.Named("service")),
		app.WithPageSize(cfg.PageSize),
		app.WithResolveBatchSize(cfg.ResolveBatchSize),
		app.WithResolveConcurrency(cfg.ResolveConcurrency),
		app.WithDefaultMinMatches(cfg.DefaultMinMatches),
		app.WithDefaultMinWeight(cfg.DefaultMinWeight),
		app.WithBroadScanThreshold(cfg.BroadScanThreshold),
		app.WithH2HEdgeLimit(cfg.H2HEdgeLimit),
	)
}

// metricsOptions maps the metrics settings of cfg onto the global manager.
func metricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(cfg.MetricsBucketsMS),
		metrics.WithConstLabels(cfg.ConstLabels()),
	}
}

// newHandler registers the landing page, docs and API routes.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc,
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		api.WithTimeout(cfg.RequestTimeout()),
		api.WithLogger(log.Named("http")),
	)
	apiServer.Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater periodically refreshes the process gauges.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			metrics.UpdateSystemMemoryUsage(m.Alloc)
			metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
		}
	}
}
