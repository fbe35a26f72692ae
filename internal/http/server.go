// Package http exposes the cash ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"cashbook/internal/cache"
	"cashbook/internal/core"
	applog "cashbook/internal/log"
	"cashbook/internal/middleware/ratelimit"
	"cashbook/internal/middleware/security"
	"cashbook/internal/middleware/trace"
	"cashbook/internal/services"
)

const addressCacheKey = "addresses"

// Options tunes the server middleware. Zero values fall back to defaults.
type Options struct {
	CacheTTL           time.Duration
	RateLimitPerMinute int
}

type Server struct {
	http.Server

	ledger  *services.LedgerService
	reports *services.ReportService

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector

	// Address listings change rarely and back every transaction form, so
	// they are served from a small LRU and invalidated on address writes.
	addressCache *cache.LRUCache[[]core.Address]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, ledger *services.LedgerService, reports *services.ReportService, opts Options) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.RateLimitPerMinute <= 0 {
		opts.RateLimitPerMinute = ratelimit.DefaultConfig().RequestsPerMinute
	}

	s := &Server{
		ledger:  ledger,
		reports: reports,
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		detector:     security.NewDetector(),
		addressCache: cache.NewLRUCache[[]core.Address](4, opts.CacheTTL),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.addressCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings/initial-balance", s.handleSetInitialBalance)

	mux.HandleFunc("GET /api/addresses", s.handleListAddresses)
	mux.HandleFunc("POST /api/addresses", s.handleCreateAddress)
	mux.HandleFunc("PUT /api/addresses/{id}", s.handleUpdateAddress)
	mux.HandleFunc("DELETE /api/addresses/{id}", s.handleDeleteAddress)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)

	mux.HandleFunc("GET /api/reports/daily", s.handleDailyReport)
	mux.HandleFunc("GET /api/reports/range", s.handleRangeReport)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.middleware(mux),
	}

	return s
}

// middleware stacks security headers, tracing and rate limiting around the
// router. Mutating methods are rate limited per client IP; reads are not.
func (s *Server) middleware(next http.Handler) http.Handler {
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.detector.ExtractClientIP)

	limited := s.rateLimiter.Middleware(s.detector.ExtractClientIP, nil)(next)
	routed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})

	detecting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldClientIP, s.detector.ExtractClientIP(r))
		}
		routed.ServeHTTP(w, r)
	})

	return headers.Middleware(tracer.Middleware(detecting))
}

// Shutdown stops background cleanup and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Ready once the store answers; a failed settings read means the
	// database is not usable yet.
	if _, err := s.ledger.Settings(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
