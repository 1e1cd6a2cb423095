// Package http provides the JSON API over the ledger service.
//
// This file implements request body parsing. Bodies may be JSON objects or
// form-encoded; both are read through the same accessor so handlers do not
// care which one the client sent.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"moneytrack/internal/core"
)

var (
	errInvalidDate       = errors.New("invalid date")
	errInvalidCategoryID = errors.New("invalid category id")
)

// dateLayout is accepted for the date field in addition to Unix seconds.
const dateLayout = "2006-01-02"

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errors.New("request body too large")
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.jsonData = nil
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// TransactionDraft builds a draft from the parsed body. A missing date
// means now; dates are Unix seconds or YYYY-MM-DD in now's location.
func (p *RequestBodyParser) TransactionDraft(now time.Time) (core.TransactionDraft, error) {
	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.TransactionDraft{}, &core.ValidationError{Field: "amount", Err: err}
	}

	date, err := parseDate(p.Get("date"), now)
	if err != nil {
		return core.TransactionDraft{}, &core.ValidationError{Field: "date", Err: err}
	}

	categoryID, err := parseCategoryID(p.Get("category_id"))
	if err != nil {
		return core.TransactionDraft{}, &core.ValidationError{Field: "category_id", Err: err}
	}

	d := core.TransactionDraft{
		CategoryID:  categoryID,
		Amount:      amount,
		Date:        date,
		Description: p.Get("description"),
		Type:        core.TransactionType(p.Get("type")),
	}
	return d, d.Validate()
}

func parseDate(s string, now time.Time) (int64, error) {
	if s == "" {
		return now.Unix(), nil
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ts, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, now.Location())
	if err != nil {
		return 0, errInvalidDate
	}
	return t.Unix(), nil
}

func parseCategoryID(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, errInvalidCategoryID
	}
	return &id, nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
