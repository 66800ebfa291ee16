// Package http exposes the JSON API. Handlers translate requests into
// service calls and domain errors into statuses; no business rules live
// here.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aikirias/FinTrack/internal/services"
	"github.com/aikirias/FinTrack/internal/storage"
)

// EventPublisher notifies interested workers that a rate changed. A nil
// publisher disables events; everything else keeps working.
type EventPublisher interface {
	PublishRateUpdated(ctx context.Context, userID, exchangeRateID int64) error
}

type Server struct {
	http.Server
	store       *storage.SQLiteRepository
	rates       *services.RateService
	txns        *services.TransactionService
	reports     *services.ReportService
	reprocessor *services.Reprocessor
	events      EventPublisher
	rateLimiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(
	addr string,
	store *storage.SQLiteRepository,
	rates *services.RateService,
	txns *services.TransactionService,
	reports *services.ReportService,
	reprocessor *services.Reprocessor,
	events EventPublisher,
) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		store:       store,
		rates:       rates,
		txns:        txns,
		reports:     reports,
		reprocessor: reprocessor,
		events:      events,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/v1/users", s.wrap(s.handleCreateUser))
	mux.HandleFunc("POST /api/v1/accounts", s.wrap(s.handleCreateAccount))
	mux.HandleFunc("GET /api/v1/categories", s.wrap(s.handleListCategories))
	mux.HandleFunc("POST /api/v1/categories", s.wrap(s.handleCreateCategory))

	mux.HandleFunc("GET /api/v1/rates/latest", s.wrap(s.handleLatestRate))
	mux.HandleFunc("POST /api/v1/rates/override", s.wrap(s.handleCreateOverride))
	mux.HandleFunc("DELETE /api/v1/rates/{id}", s.wrap(s.handleDeleteRate))

	mux.HandleFunc("POST /api/v1/transactions", s.wrap(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/v1/transactions", s.wrap(s.handleListTransactions))
	mux.HandleFunc("GET /api/v1/transactions/{id}", s.wrap(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/v1/transactions/{id}", s.wrap(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/v1/transactions/{id}", s.wrap(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/v1/reports/summary", s.wrap(s.handleSummaryReport))
	mux.HandleFunc("GET /api/v1/reports/timeseries", s.wrap(s.handleTimeseriesReport))
	mux.HandleFunc("GET /api/v1/reports/categories", s.wrap(s.handleCategoryReport))

	mux.HandleFunc("POST /api/v1/reprocess", s.wrap(s.handleReprocess))

	mux.HandleFunc("POST /api/v1/budgets", s.wrap(s.handleCreateBudget))
	mux.HandleFunc("GET /api/v1/budgets/{id}", s.wrap(s.handleGetBudget))

	return s
}

// wrap adds request IDs, request logging, and rate limiting on mutating
// methods.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				"client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests,
				errorResponse{Error: "rate limit exceeded, try again later"})
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Request-ID", requestID)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown stops the rate limiter's cleanup goroutine along with the
// listener.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
