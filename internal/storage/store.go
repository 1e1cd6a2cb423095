package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Store owns the SQLite handle that backs the ledger. It is opened once and
// handed to the repository and aggregator explicitly.
type Store struct {
	db  *sql.DB
	dsn string
}

// Open creates the database file if needed and applies pending migrations.
// Every failure is reported as *StorageInitError.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, &StorageInitError{Op: "open", Err: fmt.Errorf("empty database path")}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, &StorageInitError{Op: "create db directory", Err: err}
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, &StorageInitError{Op: "open sqlite database", Err: err}
	}

	// One connection: statements from different callers never interleave.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &StorageInitError{Op: "ping database", Err: err}
	}

	s := &Store{db: db, dsn: dsn}
	if err := s.Initialize(); err != nil {
		db.Close()
		return nil, err
	}

	slog.InfoContext(ctx, "Ledger store ready", "path", dbPath)
	return s, nil
}

// Initialize creates the tables if they are absent. It is idempotent.
func (s *Store) Initialize() error {
	if err := RunMigrations(s.dsn); err != nil {
		return &StorageInitError{Op: "migrate", Err: err}
	}
	return nil
}

// Ping checks that the database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// withTx runs fn inside a database transaction. The transaction is committed
// only if fn succeeds, otherwise nothing fn wrote is kept.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
