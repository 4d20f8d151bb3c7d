package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/queueline/queueline/internal/allocator"
	"github.com/queueline/queueline/internal/api/router"
	"github.com/queueline/queueline/internal/app/bootstrap"
	appconfig "github.com/queueline/queueline/internal/config"
	"github.com/queueline/queueline/internal/http/handlers"
	"github.com/queueline/queueline/internal/ledger"
	"github.com/queueline/queueline/internal/observability/metrics"
	"github.com/queueline/queueline/internal/scheduling"
	"github.com/queueline/queueline/internal/sweep"
	"github.com/queueline/queueline/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting queueline API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		var err error
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	stores := bootstrap.BuildStores(pool, logger)
	counter := bootstrap.BuildCounter(cfg, pool, redisClient, logger)

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	led := ledger.NewLedger(stores.Slots, stores.Catalog, stores.Catalog, logger)
	alloc := allocator.New(stores.Catalog, led, counter, stores.Journal, logger, bookingMetrics)
	engine := scheduling.NewEngine(stores.Catalog, led, alloc, stores.Appointments, logger, bookingMetrics)

	retrier := allocator.NewRetrier(stores.Journal, led, counter, logger).
		WithInterval(cfg.CompensationInterval).
		WithBatchSize(cfg.CompensationBatchSize).
		WithMaxAttempts(cfg.CompensationMaxAttempts)
	go retrier.Start(ctx)

	if cfg.SweepEnabled {
		sweeper := sweep.New(stores.Appointments, engine, logger, bookingMetrics).
			WithInterval(cfg.SweepInterval).
			WithBatchSize(cfg.SweepBatchSize)
		go sweeper.Start(ctx)
	}

	routerCfg := &router.Config{
		Logger:             logger,
		SchedulingHandler:  handlers.NewSchedulingHandler(engine, logger),
		CatalogHandler:     handlers.NewCatalogHandler(stores.Catalog, engine, logger),
		SlotHandler:        handlers.NewSlotHandler(led, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: splitOrigins(cfg.CORSAllowedOrigins),
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func splitOrigins(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
