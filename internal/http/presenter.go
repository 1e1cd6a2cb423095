package http

import (
	"time"

	"moneytrack/internal/core"
	"moneytrack/internal/services"
)

// DefaultCategoryName labels transactions whose category is unset or gone.
const DefaultCategoryName = "Default"

type transactionResponse struct {
	ID              int64                `json:"id"`
	CategoryID      *int64               `json:"category_id"`
	Category        string               `json:"category"`
	Amount          float64              `json:"amount"`
	AmountFormatted string               `json:"amount_formatted"`
	Date            int64                `json:"date"`
	Day             string               `json:"day"`
	Description     string               `json:"description"`
	Type            core.TransactionType `json:"type"`
}

type summaryResponse struct {
	Period        string  `json:"period"`
	Start         int64   `json:"start"`
	End           int64   `json:"end"`
	TotalExpenses float64 `json:"totalExpenses"`
	TotalIncome   float64 `json:"totalIncome"`
	Savings       float64 `json:"savings"`
	Formatted     struct {
		TotalExpenses string `json:"totalExpenses"`
		TotalIncome   string `json:"totalIncome"`
		Savings       string `json:"savings"`
	} `json:"formatted"`
}

type ledgerResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Categories   []core.Category       `json:"categories"`
	Summary      summaryResponse       `json:"summary"`
}

type createdTransactionResponse struct {
	Transaction transactionResponse `json:"transaction"`
	Ledger      ledgerResponse      `json:"ledger"`
}

type createdCategoryResponse struct {
	Category core.Category  `json:"category"`
	Ledger   ledgerResponse `json:"ledger"`
}

func categoryNames(categories []core.Category) map[int64]string {
	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}

// categoryName resolves id against names, falling back to DefaultCategoryName
// for nil and dangling references.
func categoryName(id *int64, names map[int64]string) string {
	if id == nil {
		return DefaultCategoryName
	}
	if name, ok := names[*id]; ok {
		return name
	}
	return DefaultCategoryName
}

func presentTransaction(tx core.Transaction, names map[int64]string) transactionResponse {
	return transactionResponse{
		ID:              tx.ID,
		CategoryID:      tx.CategoryID,
		Category:        categoryName(tx.CategoryID, names),
		Amount:          tx.Amount,
		AmountFormatted: core.FormatMoney(core.Decimal(tx.Amount)),
		Date:            tx.Date,
		Day:             tx.Time().Format(dateLayout),
		Description:     tx.Description,
		Type:            tx.Type,
	}
}

// presentSummary renders totals for the month starting at month.
func presentSummary(sum core.MonthlySummary, w core.Window, month time.Time) summaryResponse {
	savings := sum.SavingsDecimal()

	resp := summaryResponse{
		Period:        month.Format("January 2006"),
		Start:         w.Start,
		End:           w.End,
		TotalExpenses: sum.TotalExpenses,
		TotalIncome:   sum.TotalIncome,
		Savings:       savings.InexactFloat64(),
	}
	resp.Formatted.TotalExpenses = core.FormatMoney(core.Decimal(sum.TotalExpenses))
	resp.Formatted.TotalIncome = core.FormatMoney(core.Decimal(sum.TotalIncome))
	resp.Formatted.Savings = core.FormatMoney(savings)
	return resp
}

func presentLedger(v services.View) ledgerResponse {
	names := categoryNames(v.Categories)

	transactions := make([]transactionResponse, 0, len(v.Transactions))
	for _, tx := range v.Transactions {
		transactions = append(transactions, presentTransaction(tx, names))
	}

	categories := v.Categories
	if categories == nil {
		categories = []core.Category{}
	}

	return ledgerResponse{
		Transactions: transactions,
		Categories:   categories,
		Summary:      presentSummary(v.Summary, v.Window, v.Month),
	}
}
