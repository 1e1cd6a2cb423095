package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"moneytrack/internal/core"
	"moneytrack/internal/log"
	"moneytrack/internal/storage"
)

// requestError is an input problem detected before the ledger is called.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{status: http.StatusBadRequest, msg: msg}
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps err onto a status code and a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.FromContext(r.Context())

	var (
		reqErr *requestError
		verr   *core.ValidationError
		qerr   *storage.QueryError
	)
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, reqErr.status, errorResponse{Error: reqErr.msg})
	case errors.As(err, &verr):
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeValidation)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: verr.Err.Error(), Field: verr.Field})
	case errors.As(err, &qerr):
		logger.ErrorContext(r.Context(), "Storage query failed", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeDatabase)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "storage query failed"})
	default:
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err.Error(), log.FieldErrorType, log.ErrorTypeInternal)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// pathID parses the {id} wildcard. Any integer is accepted; ids that match
// no row make the delete a no-op.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, badRequest("invalid id")
	}
	return id, nil
}

// parseYearMonth extracts year and month from query parameters, defaulting
// to the month containing now. Present but malformed values are rejected.
func parseYearMonth(r *http.Request, now time.Time) (int, time.Month, error) {
	year, month := now.Year(), now.Month()

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return 0, 0, badRequest("invalid year")
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, badRequest("invalid month")
		}
		month = time.Month(m)
	}

	return year, month, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
