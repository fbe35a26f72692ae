package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cashbook/internal/amqp"
	"cashbook/internal/config"
	applog "cashbook/internal/log"
	"cashbook/internal/storage"
	"cashbook/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentWorker)
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Repository close error", "error", err)
		}
	}()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to connect to AMQP broker", "error", err, "queue", cfg.AMQPQueue)
		os.Exit(1)
	}
	defer func() {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
	}()

	eventWorker := worker.NewEventWorker(repo, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeWithReconnect(ctx, eventWorker.Handler(ctx))
	}()

	logger.Info("Event worker started", "queue", cfg.AMQPQueue, "exchange", cfg.AMQPExchange)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()

		// Give the in-flight delivery a chance to finish.
		select {
		case <-consumeErr:
		case <-time.After(10 * time.Second):
			logger.Warn("Timed out waiting for consumer to stop")
		}
	case err := <-consumeErr:
		if err != nil && err != context.Canceled {
			logger.Error("Consumer stopped", "error", err)
			os.Exit(1)
		}
	}

	processed, dropped := eventWorker.Stats()
	logger.Info("Event worker stopped", "processed", processed, "dropped", dropped)
}
