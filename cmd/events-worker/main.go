package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Avishkar0827/Expense-Manager/internal/amqp"
	"github.com/Avishkar0827/Expense-Manager/internal/config"
	"github.com/Avishkar0827/Expense-Manager/internal/log"
	"github.com/Avishkar0827/Expense-Manager/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	logger.Info("Starting events-worker", log.FieldOperation, log.OpStartup)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the events worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auditWorker := worker.NewAuditWorker(logger)

	logger.Info("Consuming events", "queue", cfg.AMQPQueue, "exchange", cfg.AMQPExchange)
	if err := auditWorker.Run(ctx, amqpClient); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	for eventType, count := range auditWorker.Counts() {
		logger.Info("Processed events", log.FieldEventType, eventType, "count", count)
	}
	logger.Info("Worker stopped gracefully")
}
