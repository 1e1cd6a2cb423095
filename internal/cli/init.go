// Package cli provides common CLI initialization utilities shared by
// cmd/moneytrack and cmd/moneytrack-init.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"moneytrack/internal/config"
	"moneytrack/internal/log"
	"moneytrack/internal/storage"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is ignored; other read errors are returned.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// SetupLogger builds the application logger from cfg and installs it as
// the slog default.
func SetupLogger(cfg *config.Config) *log.Logger {
	logger := log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    cfg.LogFormat,
		Component: log.ComponentApp,
		Output:    os.Stdout,
	})
	log.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads the .env file and the configuration.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	if err := LoadEnvFile(); err != nil {
		log.New(log.DefaultConfig()).Error("Failed to read .env file", log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// OpenStore opens and initializes the ledger database.
// A storage init failure is fatal: it is logged and the process exits.
func OpenStore(ctx context.Context, logger *log.Logger, dbPath string) *storage.Store {
	store, err := storage.Open(ctx, dbPath)
	if err != nil {
		var initErr *storage.StorageInitError
		op := "open"
		if errors.As(err, &initErr) {
			op = initErr.Op
		}
		logger.Error("Failed to initialize ledger storage",
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeDatabase,
			log.FieldOperation, op,
			"path", dbPath)
		os.Exit(1)
	}
	return store
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
