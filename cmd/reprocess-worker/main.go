package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aikirias/FinTrack/internal/amqp"
	"github.com/aikirias/FinTrack/internal/config"
	"github.com/aikirias/FinTrack/internal/core"
	"github.com/aikirias/FinTrack/internal/services"
	"github.com/aikirias/FinTrack/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting reprocess-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the reprocess-worker")
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err, "url", cfg.AMQPURL)
		os.Exit(1)
	}
	defer amqpClient.Close()

	reprocessor := services.NewReprocessor(store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Consuming rate updated messages",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	err = amqpClient.ConsumeRateUpdated(ctx, func(msg *amqp.RateUpdatedMessage) error {
		// Only the quote's own day is resynchronized; older rows keep the
		// quotes they were recorded against.
		quote, err := store.GetExchangeRate(ctx, msg.ExchangeRateID)
		if errors.Is(err, core.ErrNotFound) {
			// Requeueing would loop forever; the quote is gone.
			slog.Warn("Rate in message no longer exists, dropping",
				"message_id", msg.MessageID, "exchange_rate_id", msg.ExchangeRateID)
			return nil
		}
		if err != nil {
			return err
		}
		start := quote.EffectiveDate
		end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

		result, err := reprocessor.Reprocess(ctx, msg.UserID, services.ReprocessFilter{
			ExchangeRateID: &msg.ExchangeRateID,
			Start:          &start,
			End:            &end,
		})
		if err != nil {
			return err
		}
		slog.Info("Reprocessed after rate update",
			"message_id", msg.MessageID,
			"user_id", msg.UserID,
			"exchange_rate_id", msg.ExchangeRateID,
			"processed", result.Processed,
			"updated", result.Updated,
			"skipped", result.Skipped)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Consumer stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("Reprocess-worker shutdown complete")
}
