package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"channel_metrics/internal/config"
	"channel_metrics/internal/service"
	"channel_metrics/internal/storage/object"
	"channel_metrics/internal/storage/postgres"
)

// The transformer is a one-shot batch job: it processes the current
// date's raw partition and exits. Scheduling is external; a non-zero exit
// marks the run failed.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	storageClient, err := object.NewClient(object.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Error("failed to connect to object storage", "error", err)
		os.Exit(1)
	}
	if err := object.EnsureBucket(ctx, storageClient, cfg.Storage.TransformedBucket); err != nil {
		logger.Error("failed to ensure transformed bucket", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to object storage", "endpoint", cfg.Storage.Endpoint)

	rawStore := object.NewRawStore(storageClient, cfg.Storage.RawBucket, cfg.Storage.RawPrefix, logger)
	transformedStore := object.NewTransformedStore(storageClient, cfg.Storage.TransformedBucket, cfg.Storage.TransformedPrefix, logger)

	var (
		runStore  service.RunStore
		txManager service.TransactionManager
	)
	if cfg.Database.Enabled() {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		runStore = postgres.NewRunStore(db)
		txManager = postgres.NewTransactionManager(db)
	}

	transformService := service.NewTransformService(
		rawStore,
		transformedStore,
		runStore,
		txManager,
		logger,
		nil,
	)

	if err := transformService.Run(ctx); err != nil {
		logger.Error("transformation run failed", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
