package http

import (
	"context"
	"net/http"
	"time"

	"moneytrack/internal/log"
	"moneytrack/internal/middleware/ratelimit"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady reports ready only when the store answers a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, code := "ready", http.StatusOK
	checks := map[string]string{"storage": "ok"}

	switch {
	case s.pinger == nil:
		checks["storage"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.pinger.Ping(ctx); err != nil {
			checks["storage"] = "failed: " + err.Error()
			status, code = "not_ready", http.StatusServiceUnavailable
		}
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, ratelimit.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	v, err := s.ledger.View(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presentLedger(v))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, badRequest("malformed request body"))
		return
	}

	draft, err := p.TransactionDraft(s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tx, v, err := s.ledger.AddTransaction(r.Context(), draft)
	if err != nil {
		// The row may be stored even though the reload failed.
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createdTransactionResponse{
		Transaction: presentTransaction(tx, categoryNames(v.Categories)),
		Ledger:      presentLedger(v),
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	v, err := s.ledger.RemoveTransaction(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presentLedger(v))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sum, win, err := s.ledger.MonthSummary(r.Context(), year, month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Unix(win.Start, 0).In(s.now().Location())
	writeJSON(w, http.StatusOK, presentSummary(sum, win, start))
}

// handleListCategories reuses the full view; the store exposes categories
// only through LoadAll.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	v, err := s.ledger.View(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v.Categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.writeError(w, r, badRequest("malformed request body"))
		return
	}

	c, v, err := s.ledger.AddCategory(r.Context(), p.Get("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createdCategoryResponse{
		Category: c,
		Ledger:   presentLedger(v),
	})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	v, err := s.ledger.RemoveCategory(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, presentLedger(v))
}
