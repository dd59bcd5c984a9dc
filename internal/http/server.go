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

	applog "fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// Server wires the JSON API on top of the service layer.
type Server struct {
	http.Server
	storage      *storage.SQLiteRepository
	profiles     *services.ProfileService
	ledger       *services.LedgerService
	snapshots    *services.SnapshotService
	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	sessionTTL   time.Duration
	secureCookie bool
	stopJanitor  chan struct{}
	shutdownOnce sync.Once
}

// Config carries the server-level knobs out of the application config.
type Config struct {
	Addr         string
	SessionTTL   time.Duration
	SecureCookie bool
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, repo *storage.SQLiteRepository, profiles *services.ProfileService, ledger *services.LedgerService, snapshots *services.SnapshotService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    cfg.Addr,
			Handler: mux,
		},
		storage:      repo,
		profiles:     profiles,
		ledger:       ledger,
		snapshots:    snapshots,
		rateLimiter:  newRateLimiter(),
		metrics:      &securityMetrics{},
		sessionTTL:   cfg.SessionTTL,
		secureCookie: cfg.SecureCookie,
		stopJanitor:  make(chan struct{}),
	}

	go s.cleanSessions()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("POST /api/signup", s.withSecurityHeaders(s.handleSignup))
	mux.HandleFunc("POST /api/login", s.withSecurityHeaders(s.handleLogin))
	mux.HandleFunc("POST /api/logout", s.withSecurityHeaders(s.withAuth(s.handleLogout)))

	mux.HandleFunc("GET /api/profile", s.withSecurityHeaders(s.withAuth(s.handleGetProfile)))
	mux.HandleFunc("POST /api/profile", s.withSecurityHeaders(s.withAuth(s.handleSetProfile)))

	mux.HandleFunc("POST /api/expenses", s.withSecurityHeaders(s.withAuth(s.handleAddExpense)))
	mux.HandleFunc("POST /api/savings", s.withSecurityHeaders(s.withAuth(s.handleAddSaving)))

	mux.HandleFunc("GET /api/snapshot", s.withSecurityHeaders(s.withAuth(s.handleSnapshot)))

	mux.HandleFunc("DELETE /api/account", s.withSecurityHeaders(s.withAuth(s.handleDeleteAccount)))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopJanitor)
		if s.rateLimiter != nil {
			s.rateLimiter.stopSweep()
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

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request detected",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldComponent, applog.ComponentSecurity)
		}

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path,
				applog.FieldComponent, applog.ComponentSecurity)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, duration.Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
)

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// cleanSessions drops expired sessions every hour until shutdown.
func (s *Server) cleanSessions() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopJanitor:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := s.storage.CleanExpiredSessions(ctx); err != nil {
				slog.ErrorContext(ctx, "Failed to clean expired sessions", "error", err)
			}
			cancel()
		}
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.storage.Ping(ctx); err != nil {
		slog.ErrorContext(ctx, "Readiness check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
