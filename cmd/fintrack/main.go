package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/aikirias/FinTrack/internal/amqp"
	"github.com/aikirias/FinTrack/internal/config"
	apphttp "github.com/aikirias/FinTrack/internal/http"
	"github.com/aikirias/FinTrack/internal/rates"
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
	txnService := services.NewTransactionService(store, rateService)
	reportService := services.NewReportService(store)
	reprocessor := services.NewReprocessor(store)

	var events apphttp.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, rate events disabled", "error", err)
		} else {
			defer amqpClient.Close()
			events = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, rate overrides will not trigger async reprocessing")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Warm today's quote so the first transaction does not pay the fetch.
	// A provider outage at boot is not fatal.
	warmCtx, warmCancel := context.WithTimeout(ctx, cfg.FetchTimeout+5*time.Second)
	if _, err := rateService.EnsureDaily(warmCtx); err != nil {
		logger.Warn("Initial daily rate refresh failed", "error", err)
	}
	warmCancel()

	srv := apphttp.NewServer(":"+cfg.Port, store, rateService, txnService, reportService, reprocessor, events)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting fintrack server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
