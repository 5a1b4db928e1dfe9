package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"contas/internal/billing"
	"contas/internal/cache"
	"contas/internal/core"
	"contas/internal/services"
	"contas/internal/storage"
)

// Deps bundles everything the server serves from.
type Deps struct {
	Accounts     storage.AccountStore
	Categories   storage.CategoryStore
	Cards        storage.CardStore
	Transactions *services.TransactionService
	Invoices     *services.InvoiceService
	Forecast     *services.ForecastService
	Overview     storage.OverviewReader
}

type Server struct {
	http.Server
	deps        Deps
	rateLimiter *rateLimiter
	metrics     securityMetrics

	// Derived reads are cached briefly; writes invalidate by key.
	overviewCache *cache.LRUCache[core.MonthOverview]
	invoiceCache  *cache.LRUCache[[]billing.Invoice]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		deps:             deps,
		rateLimiter:      newRateLimiter(),
		overviewCache:    cache.NewLRUCache[core.MonthOverview](100, 5*time.Minute),
		invoiceCache:     cache.NewLRUCache[[]billing.Invoice](200, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /accounts", s.withSecurityHeaders(s.handleListAccounts))
	mux.HandleFunc("POST /accounts", s.withSecurityHeaders(s.handleCreateAccount))
	mux.HandleFunc("GET /accounts/{id}", s.withSecurityHeaders(s.handleGetAccount))
	mux.HandleFunc("PUT /accounts/{id}", s.withSecurityHeaders(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /accounts/{id}", s.withSecurityHeaders(s.handleDeleteAccount))
	mux.HandleFunc("GET /accounts/{id}/forecast", s.withSecurityHeaders(s.handleAccountForecast))

	mux.HandleFunc("GET /categories", s.withSecurityHeaders(s.handleListCategories))
	mux.HandleFunc("POST /categories", s.withSecurityHeaders(s.handleCreateCategory))
	mux.HandleFunc("GET /categories/{id}", s.withSecurityHeaders(s.handleGetCategory))
	mux.HandleFunc("PUT /categories/{id}", s.withSecurityHeaders(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /categories/{id}", s.withSecurityHeaders(s.handleDeleteCategory))

	mux.HandleFunc("GET /cards", s.withSecurityHeaders(s.handleListCards))
	mux.HandleFunc("POST /cards", s.withSecurityHeaders(s.handleCreateCard))
	mux.HandleFunc("GET /cards/{id}", s.withSecurityHeaders(s.handleGetCard))
	mux.HandleFunc("PUT /cards/{id}", s.withSecurityHeaders(s.handleUpdateCard))
	mux.HandleFunc("DELETE /cards/{id}", s.withSecurityHeaders(s.handleDeleteCard))
	mux.HandleFunc("GET /cards/{id}/cycle", s.withSecurityHeaders(s.handlePreviewCycle))
	mux.HandleFunc("GET /cards/{id}/invoices", s.withSecurityHeaders(s.handleListInvoices))
	mux.HandleFunc("GET /cards/{id}/invoices/{cycle}", s.withSecurityHeaders(s.handleGetInvoice))

	mux.HandleFunc("GET /transactions", s.withSecurityHeaders(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.withSecurityHeaders(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions/{id}", s.withSecurityHeaders(s.handleGetTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.withSecurityHeaders(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.withSecurityHeaders(s.handleDeleteTransaction))
	mux.HandleFunc("POST /transactions/{id}/paid", s.withSecurityHeaders(s.handleSetTransactionPaid))

	mux.HandleFunc("GET /overview", s.withSecurityHeaders(s.handleMonthOverview))

	return s
}

// startCacheCleanup runs periodic cleanup for both caches.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			overviewCleaned := s.overviewCache.CleanExpired()
			invoicesCleaned := s.invoiceCache.CleanExpired()
			if overviewCleaned > 0 || invoicesCleaned > 0 {
				slog.Debug("Cache cleanup completed",
					"overview_entries_removed", overviewCleaned,
					"invoice_entries_removed", invoicesCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		// Rate limit mutating requests only.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, &s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondJSON(w, r, http.StatusTooManyRequests, errorResponse{Error: "rate limit exceeded"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) overviewKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func (s *Server) invalidateOverview(year, month int) {
	s.overviewCache.Delete(s.overviewKey(year, month))
}

func (s *Server) invalidateInvoices(cardID uuid.UUID) {
	s.invoiceCache.Delete(cardID.String())
}

// invalidateForTransaction drops cached views a transaction write may
// have changed.
func (s *Server) invalidateForTransaction(t core.Transaction) {
	s.invalidateOverview(t.Date.Year(), t.Date.Month())
	if t.CardID != nil {
		s.invalidateInvoices(*t.CardID)
	}
}
