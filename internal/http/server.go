package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"moneytrack/internal/core"
	"moneytrack/internal/log"
	"moneytrack/internal/metrics"
	"moneytrack/internal/middleware/ratelimit"
	"moneytrack/internal/middleware/security"
	"moneytrack/internal/middleware/trace"
	"moneytrack/internal/services"
)

// maxBodyBytes caps request bodies; a transaction is a handful of fields.
const maxBodyBytes = 64 << 10

// Ledger is the service surface the handlers drive.
type Ledger interface {
	View(ctx context.Context) (services.View, error)
	AddTransaction(ctx context.Context, d core.TransactionDraft) (core.Transaction, services.View, error)
	RemoveTransaction(ctx context.Context, id int64) (services.View, error)
	AddCategory(ctx context.Context, name string) (core.Category, services.View, error)
	RemoveCategory(ctx context.Context, id int64) (services.View, error)
	MonthSummary(ctx context.Context, year int, month time.Month) (core.MonthlySummary, core.Window, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options carries the optional collaborators of a Server.
type Options struct {
	Logger       *log.Logger
	Metrics      *metrics.Metrics
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// WritesPerMinute caps mutating requests per client; 0 disables the limit.
	WritesPerMinute int
	// Now is the clock used for request defaults such as the summary month.
	Now func() time.Time
}

type Server struct {
	http.Server
	ledger  Ledger
	pinger  Pinger
	logger  *log.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	started time.Time
	limiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, ledger Ledger, pinger Pinger, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
		},
		ledger:  ledger,
		pinger:  pinger,
		logger:  logger.WithComponent(log.ComponentHTTP),
		metrics: opts.Metrics,
		now:     now,
		started: now(),
	}

	mux.HandleFunc("GET /api/ledger", s.handleLedger)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// Outermost first: trace assigns the request id the logger middleware reads.
	var h http.Handler = mux
	if opts.WritesPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.WritesPerMinute, Now: now})
		h = s.limiter.Middleware(ratelimit.ClientIP, s.handleRateLimited, http.MethodPost, http.MethodDelete)(h)
	}
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.RequestIDMiddleware(trace.RequestID)(h)
	h = log.Middleware(s.logger)(h)
	h = trace.NewMiddleware(logger, s.metrics).Middleware(h)
	s.Handler = h

	return s
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logger.InfoContext(ctx, "HTTP server shutting down", log.FieldOperation, log.OpShutdown)
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
