package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

type (
	TransactionType string

	Category struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	// TransactionDraft is a transaction that has not been stored yet.
	TransactionDraft struct {
		CategoryID  *int64          `json:"category_id"`
		Amount      float64         `json:"amount"`
		Date        int64           `json:"date"` // Unix seconds
		Description string          `json:"description"`
		Type        TransactionType `json:"type"`
	}

	Transaction struct {
		ID          int64           `json:"id"`
		CategoryID  *int64          `json:"category_id"`
		Amount      float64         `json:"amount"`
		Date        int64           `json:"date"` // Unix seconds
		Description string          `json:"description"`
		Type        TransactionType `json:"type"`
	}
)

var (
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrEmptyCategoryName = errors.New("empty category name")
)

// ValidationError reports a malformed field. Callers should fix the input
// before retrying.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Valid reports whether t is one of the two known directions.
func (t TransactionType) Valid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (t TransactionType) String() string {
	return string(t)
}

func (d TransactionDraft) Validate() error {
	if !d.Type.Valid() {
		return &ValidationError{Field: "type", Err: fmt.Errorf("%w: %q", ErrInvalidType, string(d.Type))}
	}
	if math.IsNaN(d.Amount) || math.IsInf(d.Amount, 0) {
		return &ValidationError{Field: "amount", Err: fmt.Errorf("%w: not a finite number", ErrInvalidAmount)}
	}
	// Direction lives in Type, the magnitude is never negative.
	if d.Amount < 0 {
		return &ValidationError{Field: "amount", Err: fmt.Errorf("%w: must not be negative", ErrInvalidAmount)}
	}
	return nil
}

// WithID returns the stored form of the draft.
func (d TransactionDraft) WithID(id int64) Transaction {
	return Transaction{
		ID:          id,
		CategoryID:  d.CategoryID,
		Amount:      d.Amount,
		Date:        d.Date,
		Description: d.Description,
		Type:        d.Type,
	}
}

// Time returns the transaction date in the local time zone.
func (t Transaction) Time() time.Time {
	return time.Unix(t.Date, 0)
}

// ValidateCategoryName trims the name and rejects it when nothing is left.
func ValidateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &ValidationError{Field: "name", Err: ErrEmptyCategoryName}
	}
	return name, nil
}
