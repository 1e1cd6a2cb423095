package log

import (
	"context"
	"log/slog"
	"net/http"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// Middleware creates HTTP middleware that adds a logger to the request context
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// FromContext extracts a logger from the request context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// RequestIDMiddleware adds request ID to logger context
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := extractRequestID(r)
			logger := FromContext(r.Context()).With(FieldRequestID, requestID)
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogTransactionCreated logs a successful insert
func (sl *StructuredLogger) LogTransactionCreated(ctx context.Context, id int64, txType string, amount float64, date int64) {
	fields := NewFields().
		WithTransaction(id, txType, amount, date).
		WithOperation(OpInsert)

	sl.logger.InfoContext(ctx, "Transaction created", fields.ToSlice()...)
}

// LogTransactionDeleted logs a delete request
func (sl *StructuredLogger) LogTransactionDeleted(ctx context.Context, id int64) {
	sl.logger.InfoContext(ctx, "Transaction delete applied",
		FieldTransactionID, id,
		FieldOperation, OpDelete)
}

// LogCategoryCreated logs a stored category
func (sl *StructuredLogger) LogCategoryCreated(ctx context.Context, id int64, name string) {
	sl.logger.InfoContext(ctx, "Category created",
		FieldCategoryID, id,
		"name", name,
		FieldOperation, OpInsertCategory)
}

// LogCategoryDeleted logs a category delete request
func (sl *StructuredLogger) LogCategoryDeleted(ctx context.Context, id int64) {
	sl.logger.InfoContext(ctx, "Category delete applied",
		FieldCategoryID, id,
		FieldOperation, OpDeleteCategory)
}

// LogReload logs the state read back after a mutation
func (sl *StructuredLogger) LogReload(ctx context.Context, transactions, categories int, start, end int64) {
	fields := NewFields().
		WithOperation(OpLoad).
		WithWindow(start, end)
	fields[FieldCount] = transactions

	sl.logger.DebugContext(ctx, "Ledger reloaded", append(fields.ToSlice(), "categories", categories)...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, operation string, errorType string) {
	fields := NewFields().
		WithError(err).
		WithErrorType(errorType).
		WithOperation(operation)

	sl.logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
