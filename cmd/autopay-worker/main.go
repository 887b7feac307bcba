package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"khata/internal/amqp"
	"khata/internal/backend"
	"khata/internal/config"
	"khata/internal/ledger"
	"khata/internal/services"
)

// Standalone auto-pay runner. Useful when the HTTP server runs with its
// ticker disabled, or for a one-off pass from cron against a shared backend.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting auto-pay worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	result, err := backend.Create(backend.Config{
		Type:          backend.Type(cfg.DataBackend),
		StateFilePath: cfg.StateFilePath,
		SQLiteDBPath:  cfg.SQLiteDBPath,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l, err := ledger.New(ctx, result.Store, nil)
	if err != nil {
		logger.Error("Failed to load ledger state", "error", err)
		os.Exit(1)
	}

	var processor *services.AutoPayProcessor
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without notices", "error", err)
			processor = services.NewAutoPayProcessor(l, nil)
		} else {
			defer amqpClient.Close()
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			processor = services.NewAutoPayProcessor(l, amqpClient)
		}
	} else {
		logger.Info("AMQP disabled - due notices will not be published")
		processor = services.NewAutoPayProcessor(l, nil)
	}

	runPass := func() {
		paid, err := processor.ProcessDue(ctx)
		if err != nil {
			logger.Error("Auto-pay pass failed", "error", err)
			return
		}
		if paid > 0 {
			logger.Info("Auto-pay pass complete", "paid", paid)
		}
	}

	runPass()

	ticker := time.NewTicker(cfg.AutoPayInterval)
	defer ticker.Stop()

	logger.Info("Auto-pay worker running", "interval", cfg.AutoPayInterval.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("Auto-pay worker stopped gracefully")
			return
		case <-ticker.C:
			runPass()
		}
	}
}
