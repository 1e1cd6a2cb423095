package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"moneytrack/internal/core"
)

const (
	selectTransactionsSQL = `SELECT * FROM Transactions ORDER BY date DESC`
	selectCategoriesSQL   = `SELECT * FROM Categories`
	insertTransactionSQL  = `INSERT INTO Transactions (category_id, amount, date, description, type) VALUES (?,?,?,?,?)`
	deleteTransactionSQL  = `DELETE FROM Transactions WHERE id = ?`
	insertCategorySQL     = `INSERT INTO Categories (name) VALUES (?)`
	deleteCategorySQL     = `DELETE FROM Categories WHERE id = ?`
)

// Repository is the only component that mutates ledger rows. Each method is
// a single unit of work: it commits completely or leaves storage unchanged.
type Repository struct {
	store *Store
}

func NewRepository(store *Store) *Repository {
	return &Repository{store: store}
}

// LoadAll returns every transaction, most recent first, and every category.
// Both reads happen in one transaction so they describe the same state.
func (r *Repository) LoadAll(ctx context.Context) ([]core.Transaction, []core.Category, error) {
	var (
		transactions []core.Transaction
		categories   []core.Category
	)

	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		transactions, err = queryTransactions(ctx, tx)
		if err != nil {
			return fmt.Errorf("query transactions: %w", err)
		}
		categories, err = queryCategories(ctx, tx)
		if err != nil {
			return fmt.Errorf("query categories: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, &QueryError{Op: "load all", Err: err}
	}

	return transactions, categories, nil
}

// Insert validates and stores a draft, returning it with its new id.
func (r *Repository) Insert(ctx context.Context, d core.TransactionDraft) (core.Transaction, error) {
	if err := d.Validate(); err != nil {
		return core.Transaction{}, err
	}

	var id int64
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertTransactionSQL,
			nullableID(d.CategoryID),
			d.Amount,
			d.Date,
			d.Description,
			string(d.Type),
		)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, &QueryError{Op: "insert transaction", Err: err}
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"type", d.Type,
		"amount", d.Amount,
		"date", d.Date)

	return d.WithID(id), nil
}

// DeleteByID removes a transaction. Deleting an unknown id is not an error.
func (r *Repository) DeleteByID(ctx context.Context, id int64) error {
	var affected int64
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, deleteTransactionSQL, id)
		if err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return &QueryError{Op: "delete transaction", Err: err}
	}

	if affected == 0 {
		slog.DebugContext(ctx, "Transaction not found, nothing deleted", "id", id)
		return nil
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id)
	return nil
}

// InsertCategory stores a new category name.
func (r *Repository) InsertCategory(ctx context.Context, name string) (core.Category, error) {
	name, err := core.ValidateCategoryName(name)
	if err != nil {
		return core.Category{}, err
	}

	var id int64
	err = r.store.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertCategorySQL, name)
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Category{}, &QueryError{Op: "insert category", Err: err}
	}

	slog.InfoContext(ctx, "Category saved", "id", id, "name", name)
	return core.Category{ID: id, Name: name}, nil
}

// DeleteCategory removes a category. Transactions that reference it keep the
// stale id; readers resolve it at display time.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	err := r.store.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteCategorySQL, id); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
	if err != nil {
		return &QueryError{Op: "delete category", Err: err}
	}

	slog.InfoContext(ctx, "Category deleted", "id", id)
	return nil
}

func queryTransactions(ctx context.Context, tx *sql.Tx) ([]core.Transaction, error) {
	rows, err := tx.QueryContext(ctx, selectTransactionsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []core.Transaction{}
	for rows.Next() {
		var (
			t          core.Transaction
			categoryID sql.NullInt64
			typ        string
		)
		if err := rows.Scan(&t.ID, &categoryID, &t.Amount, &t.Date, &t.Description, &typ); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if categoryID.Valid {
			id := categoryID.Int64
			t.CategoryID = &id
		}
		t.Type = core.TransactionType(typ)
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, nil
}

func queryCategories(ctx context.Context, tx *sql.Tx) ([]core.Category, error) {
	rows, err := tx.QueryContext(ctx, selectCategoriesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
