// Package http serves the ledger JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/services"
	"ledger/internal/summary"
)

// Ledger is the service surface the handlers need.
type Ledger interface {
	Catalog() core.Catalog
	Record(ctx context.Context, d core.Draft) ([]core.Transaction, error)
	Import(ctx context.Context, drafts []core.Draft) (services.ImportResult, error)
	List(ctx context.Context) ([]core.Transaction, error)
	ListRange(ctx context.Context, start, end core.Date) ([]core.Transaction, error)
	MonthlySummary(ctx context.Context) ([]summary.Row, error)
	Breakdown(ctx context.Context, month core.YearMonth, keep summary.Filter) ([]summary.CategoryBreakdown, error)
	Dashboard(ctx context.Context) (summary.Dashboard, error)
	Ready(ctx context.Context) error
}

type Config struct {
	Addr       string
	CORSOrigin string
	// RateLimitPerMinute caps POST requests per client. 0 disables it.
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	ledger  Ledger
	logger  *log.Logger
	limiter *ratelimit.Limiter

	shutdownOnce sync.Once
}

const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 2 * time.Minute

	// maxBodyBytes bounds request bodies, bulk imports included.
	maxBodyBytes = 10 << 20
)

func NewServer(cfg Config, ledger Ledger, logger *log.Logger) *Server {
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: readHeaderTimeout,
			ReadTimeout:       readTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
		ledger: ledger,
		logger: logger.WithComponent(log.ComponentHTTP),
	}
	if cfg.RateLimitPerMinute > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})
	}
	s.Handler = s.routes(cfg)
	return s
}

func (s *Server) routes(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(security.CORS(cfg.CORSOrigin))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Group(func(r chi.Router) {
				if s.limiter != nil {
					r.Use(s.limiter.Middleware(security.ClientIP, writeRateLimited))
				}
				r.Use(middleware.AllowContentType("application/json"))
				r.Post("/", s.handleCreateTransaction)
				r.Post("/bulk", s.handleBulkImport)
			})
		})

		r.Get("/summary/monthly", s.handleMonthlySummary)

		r.Get("/breakdown", s.handleBreakdown)
		r.Get("/breakdown/income", s.handleIncomeBreakdown)
		r.Get("/breakdown/expense", s.handleExpenseBreakdown)

		r.Get("/dashboard", s.handleDashboard)

		r.Get("/reports/summary.pdf", s.handleSummaryPDF)
		r.Get("/reports/summary.png", s.handleSummaryChart)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ledger.Ready(ctx); err != nil {
		errType := log.ErrorTypeDatabase
		if errors.Is(err, context.DeadlineExceeded) {
			errType = log.ErrorTypeTimeout
		}
		log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed",
			log.FieldErrorType, errType,
			log.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.Catalog())
}
