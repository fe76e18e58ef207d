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
	"channel_metrics/internal/publisher"
	"channel_metrics/internal/scheduler"
	"channel_metrics/internal/service"
	"channel_metrics/internal/source/youtube"
	"channel_metrics/internal/storage/object"
	"channel_metrics/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to object storage and make sure the raw bucket exists
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
	if err := object.EnsureBucket(ctx, storageClient, cfg.Storage.RawBucket); err != nil {
		logger.Error("failed to ensure raw bucket", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to object storage", "endpoint", cfg.Storage.Endpoint)

	rawStore := object.NewRawStore(storageClient, cfg.Storage.RawBucket, cfg.Storage.RawPrefix, logger)

	// Run ledger is optional
	var (
		runStore   service.RunStore
		stateStore service.SourceStateStore
		txManager  service.TransactionManager
	)
	if cfg.Database.Enabled() {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		logger.Info("connected to database")

		runStore = postgres.NewRunStore(db)
		stateStore = postgres.NewSourceStateStore(db)
		txManager = postgres.NewTransactionManager(db)
	}

	// Run-event publisher is optional
	var pub service.Publisher
	if cfg.RabbitMQ.Enabled() {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer rabbitMQ.Close()
		pub = rabbitMQ
	}

	ytClient := youtube.New(youtube.Config{
		BaseURL:  cfg.API.BaseURL,
		Key:      cfg.API.Key,
		PageSize: cfg.API.PageSize,
		Timeout:  cfg.API.Timeout,
	}, logger)

	extractService := service.NewExtractService(
		ytClient,
		rawStore,
		runStore,
		stateStore,
		txManager,
		pub,
		logger,
		cfg.Extract,
		nil,
	)

	sched := scheduler.NewScheduler(extractService, cfg.Extract.Interval, logger)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	logger.Info("starting channel extractor",
		"channels", len(cfg.Extract.Channels),
		"interval", cfg.Extract.Interval,
		"max_videos", cfg.Extract.MaxVideos,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
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
