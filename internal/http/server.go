// Package http exposes the ledger over a JSON API.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"khata/internal/cache"
	"khata/internal/ledger"
	"khata/internal/log"
)

type Server struct {
	http.Server
	ledger      *ledger.Ledger
	rateLimiter *rateLimiter

	// Month summaries are the hot read path; cached per selector with the
	// "current" entry invalidated on every mutation.
	summaryCache *cache.LRUCache[summaryResponse]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes, returning a ready-to-run http.Server.
func NewServer(addr string, l *ledger.Ledger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ledger:           l,
		rateLimiter:      newRateLimiter(),
		summaryCache:     cache.NewLRUCache[summaryResponse](100, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	// Start periodic cache cleanup
	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /api/accounts", s.withSecurityHeaders(s.handleListAccounts))
	mux.HandleFunc("POST /api/accounts", s.withSecurityHeaders(s.handleCreateAccount))
	mux.HandleFunc("POST /api/accounts/{id}/select", s.withSecurityHeaders(s.handleSelectAccount))

	mux.HandleFunc("POST /api/income", s.withSecurityHeaders(s.handleAddIncome))
	mux.HandleFunc("POST /api/expenses", s.withSecurityHeaders(s.handleAddExpense))

	mux.HandleFunc("GET /api/months", s.withSecurityHeaders(s.handleListMonths))
	mux.HandleFunc("GET /api/months/{selector}", s.withSecurityHeaders(s.handleMonthData))
	mux.HandleFunc("GET /api/months/{selector}/summary", s.withSecurityHeaders(s.handleMonthSummary))
	mux.HandleFunc("POST /api/months/rollover", s.withSecurityHeaders(s.handleRollover))

	mux.HandleFunc("GET /api/goals", s.withSecurityHeaders(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.withSecurityHeaders(s.handleCreateGoal))
	mux.HandleFunc("POST /api/goals/{key}/contribute", s.withSecurityHeaders(s.handleContribute))

	mux.HandleFunc("GET /api/recurring", s.withSecurityHeaders(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring", s.withSecurityHeaders(s.handleCreateRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.withSecurityHeaders(s.handleDeleteRecurring))
	mux.HandleFunc("POST /api/recurring/{id}/pay", s.withSecurityHeaders(s.handlePayRecurring))
	mux.HandleFunc("GET /api/recurring/due", s.withSecurityHeaders(s.handleDueRecurring))
	mux.HandleFunc("POST /api/autopay/run", s.withSecurityHeaders(s.handleRunAutoPay))

	mux.HandleFunc("GET /api/export/month/{selector}", s.withSecurityHeaders(s.handleExportMonth))
	mux.HandleFunc("GET /api/export/csv/{selector}", s.withSecurityHeaders(s.handleExportCSV))
	mux.HandleFunc("GET /api/export/backup", s.withSecurityHeaders(s.handleExportBackup))
	mux.HandleFunc("POST /api/export/sheets/{selector}", s.withSecurityHeaders(s.handleExportSheets))
	mux.HandleFunc("POST /api/restore", s.withSecurityHeaders(s.handleRestore))
	mux.HandleFunc("POST /api/reset", s.withSecurityHeaders(s.handleReset))

	return s
}

// startCacheCleanup runs periodic cleanup for the summary cache.
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.summaryCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed",
					log.FieldComponent, log.ComponentCache,
					"entries_removed", cleaned)
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

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		slog.InfoContext(r.Context(), "Request started",
			"request_id", requestID,
			log.FieldComponent, log.ComponentHTTP,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		// Rate limit mutations only; reads are cheap.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(r.Context(), "Rate limit exceeded",
				log.FieldComponent, log.ComponentRateLimit,
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(r.Context(), "Request completed",
			"request_id", requestID,
			log.FieldComponent, log.ComponentHTTP,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
