package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aikirias/FinTrack/internal/config"
	"github.com/aikirias/FinTrack/internal/rates"
	"github.com/aikirias/FinTrack/internal/services"
	"github.com/aikirias/FinTrack/internal/storage"
	"github.com/aikirias/FinTrack/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting rate-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	fetcher := rates.NewClient(cfg.DolarAPIURL, cfg.CoinGeckoAPIURL, cfg.FetchTimeout)
	rateService := services.NewRateService(store, fetcher)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Daily rate refresh configured",
		"interval", cfg.RefreshInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	// EnsureDaily is idempotent per day, so a short interval only costs a
	// read after the first success.
	worker.RunPeriodic(ctx, worker.PeriodicTask{
		Name:     "daily-rate-refresh",
		Interval: cfg.RefreshInterval,
		Run: func(ctx context.Context) error {
			_, err := rateService.EnsureDaily(ctx)
			return err
		},
	})

	logger.Info("Rate-worker shutdown complete")
}
