// Package http exposes the dashboard operations as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"xpenso/internal/insights"
	"xpenso/internal/log"
	"xpenso/internal/services"
)

// Services are the application services behind the routes.
type Services struct {
	Transactions *services.TransactionService
	Dashboard    *services.DashboardService
	Alerts       *services.AlertService
	Settings     *services.SettingsService
	Insights     *insights.Service
	// Ready backs /readyz. Nil means always ready.
	Ready func(ctx context.Context) error
}

type Server struct {
	http.Server
	svc        Services
	limiter    *rateLimiter
	limit      int
	metrics    *securityMetrics
	logger     *log.Logger
	structured *log.StructuredLogger
	now        func() time.Time

	shutdownOnce sync.Once
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l.WithComponent(log.ComponentHTTP)
		}
	}
}

// WithRateLimit sets the allowed writes per client IP and minute.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) { s.limit = perMinute }
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		limit:   DefaultRequestsPerMinute,
		metrics: &securityMetrics{},
		logger:  log.Discard(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.limiter = newRateLimiter(s.limit, s.now)
	s.structured = log.NewStructuredLogger(s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleRecordTransaction)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/trends/yearly", s.handleYearlyTrend)
	mux.HandleFunc("GET /api/trends/hourly", s.handleHourlyTrend)
	mux.HandleFunc("GET /api/income-streams", s.handleIncomeStreams)
	mux.HandleFunc("GET /api/budget-categories", s.handleBudgetCategories)
	mux.HandleFunc("POST /api/budget-categories", s.handleAddCategory)
	mux.HandleFunc("GET /api/alerts", s.handleListAlerts)
	mux.HandleFunc("POST /api/alerts/evaluate", s.handleEvaluateAlerts)
	mux.HandleFunc("POST /api/alerts/{id}/read", s.handleMarkAlertRead)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleSaveSettings)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("POST /api/insights", s.handleGenerateInsight)
	mux.HandleFunc("GET /api/insights/latest", s.handleLatestInsight)

	var h http.Handler = mux
	h = log.RequestIDMiddleware(requestIDFrom)(h)
	h = log.Middleware(s.logger)(h)
	h = s.withRequestGuards(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// withRequestGuards tags the request with an ID, applies security headers
// and rate limits writes per client IP, then logs the outcome.
func (s *Server) withRequestGuards(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)
		setSecurityHeaders(w, r)

		s.structured.LogHTTPStart(ctx, r, clientIP)
		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP, log.FieldPath, r.URL.Path, log.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		if isWrite(r.Method) && !s.limiter.allow(clientIP, s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			TooManyRequestsError("60").Write(rw)
		} else {
			next.ServeHTTP(rw, r)
		}

		s.structured.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

func isWrite(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
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

// Shutdown stops the rate limiter and drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.svc.Ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
