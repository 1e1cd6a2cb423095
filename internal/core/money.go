// Package core provides money parsing and formatting utilities.
//
// Amounts are persisted as plain floating point magnitudes. Arithmetic done
// for display goes through decimal values so totals like 0.1 + 0.2 render as
// expected.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user supplied decimal string to an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs are
// rejected because direction is carried by the transaction type.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> 0, ErrInvalidAmount
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// Decimal converts a stored amount for display arithmetic.
func Decimal(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// SavingsDecimal is Savings computed without float drift.
func (s MonthlySummary) SavingsDecimal() decimal.Decimal {
	return Decimal(s.TotalIncome).Sub(Decimal(s.TotalExpenses))
}

// FormatMoney renders a value with two decimals and a leading sign,
// e.g. "$30.00" or "-$12.50".
func FormatMoney(v decimal.Decimal) string {
	s := "$" + v.Abs().StringFixed(2)
	if v.IsNegative() {
		return "-" + s
	}
	return s
}
