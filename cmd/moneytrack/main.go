package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"moneytrack/internal/cli"
	apphttp "moneytrack/internal/http"
	"moneytrack/internal/log"
	"moneytrack/internal/metrics"
	"moneytrack/internal/services"
	"moneytrack/internal/storage"
)

func main() {
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	store := cli.OpenStore(ctx, logger, cfg.SQLiteDBPath)
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close ledger storage", log.FieldError, err.Error())
		}
	}()

	m := metrics.New()
	ledger := services.NewLedgerService(
		storage.NewRepository(store),
		storage.NewAggregator(store),
		services.WithLogger(logger),
		services.WithMetrics(m),
	)

	srv := apphttp.NewServer(cfg.Addr(), ledger, store, apphttp.Options{
		Logger:       logger,
		Metrics:      m,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,

		WritesPerMinute: cfg.WritesPerMinute,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting moneytrack server", "addr", cfg.Addr(), "db", cfg.SQLiteDBPath,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error())
		store.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
