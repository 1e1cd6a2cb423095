// Command moneytrack-init creates the ledger database and applies pending
// migrations, then exits. Running it against an existing database is a no-op.
package main

import (
	"context"
	"os"

	"moneytrack/internal/cli"
	"moneytrack/internal/log"
)

func main() {
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	store := cli.OpenStore(context.Background(), logger, cfg.SQLiteDBPath)

	// Open already migrated; Initialize again to confirm the schema is current.
	if err := store.Initialize(); err != nil {
		logger.Error("Failed to initialize ledger storage", log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeDatabase)
		store.Close()
		os.Exit(1)
	}
	if err := store.Close(); err != nil {
		logger.Error("Failed to close ledger storage", log.FieldError, err.Error())
		os.Exit(1)
	}

	logger.Info("Ledger storage initialized", "path", cfg.SQLiteDBPath, log.FieldOperation, log.OpStartup)
}
