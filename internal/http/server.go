// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"rasid/internal/cache"
	"rasid/internal/ledger"
	"rasid/internal/log"
	"rasid/internal/stats"
)

const dashboardCacheKey = "dashboard"

type Server struct {
	http.Server
	ledger      *ledger.Service
	rateLimiter *rateLimiter

	// Dashboard aggregates are recomputed on demand and cached until
	// the next mutation.
	dashboardCache *cache.LRU[stats.Dashboard]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, svc *ledger.Service, cacheTTL time.Duration) *Server {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:           svc,
		rateLimiter:      newRateLimiter(),
		dashboardCache:   cache.NewLRU[stats.Dashboard](4, cacheTTL),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/accounts", s.secure(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.secure(s.handleCreateAccount))
	mux.HandleFunc("PUT /api/accounts/{id}", s.secure(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.secure(s.handleDeleteAccount))

	mux.HandleFunc("GET /api/transactions", s.secure(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.secure(s.handleCreateTransaction))

	mux.HandleFunc("GET /api/dashboard", s.secure(s.handleDashboard))

	mux.HandleFunc("GET /api/settings/sync-url", s.secure(s.handleGetSyncURL))
	mux.HandleFunc("PUT /api/settings/sync-url", s.secure(s.handleSetSyncURL))

	mux.HandleFunc("GET /api/backup", s.secure(s.handleExportBackup))
	mux.HandleFunc("POST /api/backup", s.secure(s.handleImportBackup))
	mux.HandleFunc("GET /api/export/accounts.csv", s.secure(s.handleExportAccountsCSV))
	mux.HandleFunc("GET /api/export/transactions.csv", s.secure(s.handleExportTransactionsCSV))

	return s
}

// secure adds security headers, rate limiting on mutations, and request
// logging around a handler.
func (s *Server) secure(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)
		requestID := generateRequestID()

		logger := log.FromContext(r.Context()).With(log.FieldRequestID, requestID)
		ctx := log.WithLogger(r.Context(), logger)
		r = r.WithContext(ctx)

		logger.InfoContext(ctx, "Request started",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, ip)

		if isMutation(r.Method) && !s.rateLimiter.allow(ip) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, ip, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		if isMutation(r.Method) && rw.statusCode < 400 {
			s.dashboardCache.Delete(dashboardCacheKey)
		}

		logger.InfoContext(ctx, "Request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, ip)
	}
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
		return true
	}
	return false
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.dashboardCache.CleanExpired(); n > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", n)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown stops the cleanup goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopCacheCleanup)
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

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

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ledger.Accounts(r.Context()); err != nil {
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
