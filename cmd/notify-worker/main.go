package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"khata/internal/amqp"
	"khata/internal/config"
	"khata/internal/core"
)

// Consumes due notices produced by auto-pay passes and logs reminders.
// A real deployment would hand these to email or push delivery.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting notify worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the notify worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := func(msg *amqp.DueNoticeMessage) error {
		amount := core.Money{Paise: msg.AmountPaise}
		switch msg.Status {
		case "paid":
			logger.Info("Obligation paid automatically",
				"obligation", msg.Name,
				"period", msg.Period,
				"amount", amount.String())
		default:
			logger.Warn("Obligation needs attention",
				"obligation", msg.Name,
				"period", msg.Period,
				"amount", amount.String(),
				"reason", msg.Reason)
		}
		return nil
	}

	go func() {
		if err := amqpClient.ConsumeDueNotices(ctx, handler); err != nil {
			logger.Error("Consumer stopped", "error", err)
			stop()
		}
	}()

	logger.Info("Notify worker running", "queue", cfg.AMQPQueue)
	<-ctx.Done()
	logger.Info("Notify worker stopped gracefully")
}
