package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"moneytrack/internal/core"
	"moneytrack/internal/log"
	"moneytrack/internal/metrics"
	"moneytrack/internal/storage"
)

// TransactionStore is the persistence surface the service drives.
type TransactionStore interface {
	LoadAll(ctx context.Context) ([]core.Transaction, []core.Category, error)
	Insert(ctx context.Context, d core.TransactionDraft) (core.Transaction, error)
	DeleteByID(ctx context.Context, id int64) error
	InsertCategory(ctx context.Context, name string) (core.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
}

// Summarizer computes totals for a window.
type Summarizer interface {
	Summarize(ctx context.Context, w core.Window) (core.MonthlySummary, error)
}

// View is the complete state the presentation layer renders.
type View struct {
	Transactions []core.Transaction
	Categories   []core.Category
	Summary      core.MonthlySummary
	Window       core.Window
	Month        time.Time // first instant of the summarized month
}

// LedgerService runs one logical operation at a time. Every mutation is
// followed by a full reload, so callers never see totals computed from
// stale rows.
type LedgerService struct {
	mu      sync.Mutex
	store   TransactionStore
	agg     Summarizer
	now     func() time.Time
	logger  *log.StructuredLogger
	metrics *metrics.Metrics
}

type Option func(*LedgerService)

// WithClock overrides the time source used to pick the current month.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *LedgerService) {
		s.logger = log.NewStructuredLogger(logger.WithComponent(log.ComponentLedger))
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LedgerService) { s.metrics = m }
}

func NewLedgerService(store TransactionStore, agg Summarizer, opts ...Option) *LedgerService {
	s := &LedgerService{
		store: store,
		agg:   agg,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewStructuredLogger(log.New(log.DefaultConfig()).WithComponent(log.ComponentLedger))
	}
	return s
}

// View loads every transaction and category and the current month's totals.
func (s *LedgerService) View(ctx context.Context) (v View, err error) {
	defer s.observe(ctx, log.OpLoad, time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reload(ctx)
}

// AddTransaction stores d and returns the stored row with a fresh view.
// If the insert commits but the reload fails, the transaction is returned
// together with the reload error.
func (s *LedgerService) AddTransaction(ctx context.Context, d core.TransactionDraft) (tx core.Transaction, v View, err error) {
	defer s.observe(ctx, log.OpInsert, time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err = s.store.Insert(ctx, d)
	if err != nil {
		return core.Transaction{}, View{}, fmt.Errorf("add transaction: %w", err)
	}
	s.logger.LogTransactionCreated(ctx, tx.ID, tx.Type.String(), tx.Amount, tx.Date)

	v, err = s.reload(ctx)
	return tx, v, err
}

// RemoveTransaction deletes id, absent or not, and returns a fresh view.
func (s *LedgerService) RemoveTransaction(ctx context.Context, id int64) (v View, err error) {
	defer s.observe(ctx, log.OpDelete, time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.store.DeleteByID(ctx, id); err != nil {
		return View{}, fmt.Errorf("remove transaction: %w", err)
	}
	s.logger.LogTransactionDeleted(ctx, id)

	return s.reload(ctx)
}

// AddCategory stores a new category and returns a fresh view.
func (s *LedgerService) AddCategory(ctx context.Context, name string) (c core.Category, v View, err error) {
	defer s.observe(ctx, log.OpInsertCategory, time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err = s.store.InsertCategory(ctx, name)
	if err != nil {
		return core.Category{}, View{}, fmt.Errorf("add category: %w", err)
	}
	s.logger.LogCategoryCreated(ctx, c.ID, c.Name)

	v, err = s.reload(ctx)
	return c, v, err
}

// RemoveCategory deletes a category. Transactions referencing it are kept.
func (s *LedgerService) RemoveCategory(ctx context.Context, id int64) (v View, err error) {
	defer s.observe(ctx, log.OpDeleteCategory, time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err = s.store.DeleteCategory(ctx, id); err != nil {
		return View{}, fmt.Errorf("remove category: %w", err)
	}
	s.logger.LogCategoryDeleted(ctx, id)

	return s.reload(ctx)
}

// MonthSummary totals an arbitrary calendar month in the clock's location.
func (s *LedgerService) MonthSummary(ctx context.Context, year int, month time.Month) (sum core.MonthlySummary, w core.Window, err error) {
	defer s.observe(ctx, log.OpSummarize, time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	w = core.MonthWindow(year, month, s.now().Location())
	sum, err = s.agg.Summarize(ctx, w)
	if err != nil {
		return core.MonthlySummary{}, core.Window{}, fmt.Errorf("month summary: %w", err)
	}
	return sum, w, nil
}

// reload must be called with s.mu held.
func (s *LedgerService) reload(ctx context.Context) (View, error) {
	transactions, categories, err := s.store.LoadAll(ctx)
	if err != nil {
		return View{}, fmt.Errorf("reload ledger: %w", err)
	}

	now := s.now()
	w := core.CurrentMonthWindow(now)
	summary, err := s.agg.Summarize(ctx, w)
	if err != nil {
		return View{}, fmt.Errorf("reload summary: %w", err)
	}

	s.logger.LogReload(ctx, len(transactions), len(categories), w.Start, w.End)

	return View{
		Transactions: transactions,
		Categories:   categories,
		Summary:      summary,
		Window:       w,
		Month:        time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
	}, nil
}

func (s *LedgerService) observe(ctx context.Context, op string, start time.Time, errp *error) {
	outcome := Outcome(*errp)
	s.metrics.ObserveOperation(op, outcome, time.Since(start))

	switch outcome {
	case metrics.OutcomeQueryError:
		s.logger.LogError(ctx, "Ledger operation failed", *errp, op, log.ErrorTypeDatabase)
	case metrics.OutcomeError:
		s.logger.LogError(ctx, "Ledger operation failed", *errp, op, log.ErrorTypeInternal)
	}
}

// Outcome classifies err into one of the metrics outcome labels.
func Outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return metrics.OutcomeValidationError
	}
	var qerr *storage.QueryError
	if errors.As(err, &qerr) {
		return metrics.OutcomeQueryError
	}
	return metrics.OutcomeError
}
