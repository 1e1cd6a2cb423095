package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneytrack/internal/core"
	"moneytrack/internal/log"
	"moneytrack/internal/metrics"
	"moneytrack/internal/services"
	"moneytrack/internal/storage"
)

var testNow = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func newTestServer(t *testing.T, tweaks ...func(*Options)) (*Server, *storage.Store) {
	t.Helper()
	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := func() time.Time { return testNow }
	ledger := services.NewLedgerService(
		storage.NewRepository(store),
		storage.NewAggregator(store),
		services.WithClock(clock),
		services.WithLogger(quietLogger()),
	)
	opts := Options{
		Logger:  quietLogger(),
		Metrics: metrics.New(),
		Now:     clock,
	}
	for _, tweak := range tweaks {
		tweak(&opts)
	}
	srv := NewServer(":0", ledger, store, opts)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv, store
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv, store := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	}

	require.NoError(t, store.Close())
	rr := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestLedgerStartsWithSeededCategories(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodGet, "/api/ledger", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	got := decode[ledgerResponse](t, rr)
	assert.Empty(t, got.Transactions)
	assert.NotNil(t, got.Transactions)
	assert.Len(t, got.Categories, 8)
	assert.Equal(t, "March 2025", got.Summary.Period)
	assert.Equal(t, "$0.00", got.Summary.Formatted.Savings)
}

func TestCreateAndDeleteTransaction(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/transactions", `{"amount": 50, "type": "Income", "description": "pay"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, srv, http.MethodPost, "/api/transactions", "amount=20&type=Expense&category_id=1&description=food")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	created := decode[createdTransactionResponse](t, rr)
	assert.Equal(t, "Groceries", created.Transaction.Category)
	assert.Equal(t, "$20.00", created.Transaction.AmountFormatted)
	assert.Equal(t, 50.0, created.Ledger.Summary.TotalIncome)
	assert.Equal(t, 20.0, created.Ledger.Summary.TotalExpenses)
	assert.Equal(t, 30.0, created.Ledger.Summary.Savings)
	assert.Equal(t, "$30.00", created.Ledger.Summary.Formatted.Savings)
	require.Len(t, created.Ledger.Transactions, 2)

	rr = do(t, srv, http.MethodDelete, "/api/transactions/"+itoa(created.Transaction.ID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	after := decode[ledgerResponse](t, rr)
	assert.Len(t, after.Transactions, 1)
	assert.Zero(t, after.Summary.TotalExpenses)

	// Deleting again is not an error.
	rr = do(t, srv, http.MethodDelete, "/api/transactions/"+itoa(created.Transaction.ID), "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNegativeSavingsFormatting(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/transactions", `{"amount": "12,50", "type": "Expense"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	got := decode[createdTransactionResponse](t, rr)
	assert.Equal(t, "-$12.50", got.Ledger.Summary.Formatted.Savings)
	assert.Equal(t, DefaultCategoryName, got.Transaction.Category)
}

func TestCreateTransactionErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"malformed json", `{"amount": `, http.StatusBadRequest},
		{"unknown type", `{"amount": 1, "type": "Refund"}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"amount": -1, "type": "Expense"}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/transactions", tt.body)
			assert.Equal(t, tt.code, rr.Code)
			assert.NotEmpty(t, decode[errorResponse](t, rr).Error)
		})
	}

	rr := do(t, srv, http.MethodGet, "/api/ledger", "")
	assert.Empty(t, decode[ledgerResponse](t, rr).Transactions)
}

func TestDeleteRejectsNonIntegerID(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, id := range []string{"abc", "1.5", "99999999999999999999"} {
		rr := do(t, srv, http.MethodDelete, "/api/transactions/"+id, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, id)
	}
}

func TestDeleteUnknownIDIsNoop(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/transactions", `{"amount": 5, "type": "Income"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	for _, path := range []string{"/api/transactions/0", "/api/transactions/-3", "/api/categories/0", "/api/categories/-1"} {
		rr := do(t, srv, http.MethodDelete, path, "")
		require.Equal(t, http.StatusOK, rr.Code, path)
		got := decode[ledgerResponse](t, rr)
		assert.Len(t, got.Transactions, 1, path)
		assert.Len(t, got.Categories, 8, path)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPut, "/api/transactions", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestSummaryForMonth(t *testing.T) {
	srv, _ := newTestServer(t)

	feb := time.Date(2025, time.February, 28, 23, 59, 59, 0, time.UTC).Unix()
	rr := do(t, srv, http.MethodPost, "/api/transactions", `{"amount": 10, "type": "Income", "date": `+itoa(feb)+`}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, srv, http.MethodGet, "/api/summary?year=2025&month=2", "")
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[summaryResponse](t, rr)
	assert.Equal(t, "February 2025", got.Period)
	assert.Equal(t, 10.0, got.TotalIncome)
	assert.Equal(t, feb, got.End)

	rr = do(t, srv, http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, decode[summaryResponse](t, rr).TotalIncome)

	rr = do(t, srv, http.MethodGet, "/api/summary?month=13", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCategoryEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := do(t, srv, http.MethodPost, "/api/categories", `{"name": "  "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "name", decode[errorResponse](t, rr).Field)

	rr = do(t, srv, http.MethodPost, "/api/categories", `{"name": "Pets"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	cat := decode[createdCategoryResponse](t, rr).Category
	assert.Equal(t, "Pets", cat.Name)

	rr = do(t, srv, http.MethodPost, "/api/transactions", `{"amount": 9, "type": "Expense", "category_id": `+itoa(cat.ID)+`}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "Pets", decode[createdTransactionResponse](t, rr).Transaction.Category)

	rr = do(t, srv, http.MethodDelete, "/api/categories/"+itoa(cat.ID), "")
	require.Equal(t, http.StatusOK, rr.Code)
	ledger := decode[ledgerResponse](t, rr)
	require.Len(t, ledger.Transactions, 1)
	assert.Equal(t, DefaultCategoryName, ledger.Transactions[0].Category)
	require.NotNil(t, ledger.Transactions[0].CategoryID)
	assert.Equal(t, cat.ID, *ledger.Transactions[0].CategoryID)

	rr = do(t, srv, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.Category](t, rr), 8)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	do(t, srv, http.MethodGet, "/api/ledger", "")
	rr := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `moneytrack_http_requests_total{code="200",method="GET"}`)
}

func TestWriteRateLimit(t *testing.T) {
	var buf bytes.Buffer
	srv, _ := newTestServer(t, func(o *Options) {
		o.WritesPerMinute = 1
		o.Logger = log.New(log.Config{Format: "json", Output: &buf})
	})

	rr := do(t, srv, http.MethodPost, "/api/categories", `{"name": "Pets"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = do(t, srv, http.MethodDelete, "/api/transactions/1", "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "rate limit exceeded", decode[errorResponse](t, rr).Error)
	assert.Contains(t, buf.String(), `"client_ip":"192.0.2.1"`)

	// Reads are never limited.
	rr = do(t, srv, http.MethodGet, "/api/ledger", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

type failingLedger struct {
	Ledger
	err error
}

func (f failingLedger) View(context.Context) (services.View, error) {
	return services.View{}, f.err
}

func TestQueryErrorMapsTo500(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Format: "json", Output: &buf})
	qerr := &storage.QueryError{Op: "load all", Err: errors.New("database is locked")}
	srv := NewServer(":0", failingLedger{err: qerr}, nil, Options{Logger: logger})

	rr := do(t, srv, http.MethodGet, "/api/ledger", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "storage query failed", decode[errorResponse](t, rr).Error)
	assert.Contains(t, buf.String(), "database is locked")

	rr = do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
