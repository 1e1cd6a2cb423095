package storage

import (
	"context"

	"moneytrack/internal/core"
)

const summarizeSQL = `SELECT COALESCE(SUM(CASE WHEN type='Expense' THEN amount ELSE 0 END),0) AS totalExpenses, COALESCE(SUM(CASE WHEN type='Income' THEN amount ELSE 0 END),0) AS totalIncome FROM Transactions WHERE date >= ? AND date <= ?`

// Aggregator computes totals over persisted transactions. It never writes.
type Aggregator struct {
	store *Store
}

func NewAggregator(store *Store) *Aggregator {
	return &Aggregator{store: store}
}

// Summarize sums income and expenses dated inside w. An empty window yields
// zero totals.
func (a *Aggregator) Summarize(ctx context.Context, w core.Window) (core.MonthlySummary, error) {
	var s core.MonthlySummary
	err := a.store.db.QueryRowContext(ctx, summarizeSQL, w.Start, w.End).
		Scan(&s.TotalExpenses, &s.TotalIncome)
	if err != nil {
		return core.MonthlySummary{}, &QueryError{Op: "summarize", Err: err}
	}
	return s, nil
}
