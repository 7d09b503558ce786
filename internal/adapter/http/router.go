package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/iho/cardledger/internal/adapter/http/handler"
	"github.com/iho/cardledger/internal/adapter/http/middleware"
	"github.com/iho/cardledger/internal/infrastructure/metrics"
	"github.com/iho/cardledger/internal/usecase"
)

// RouterConfig holds dependencies for the router. Optional pieces are
// skipped when nil.
type RouterConfig struct {
	CardHandler    *handler.CardHandler
	EntryHandler   *handler.EntryHandler
	InvoiceHandler *handler.InvoiceHandler
	SummaryHandler *handler.SummaryHandler
	HealthHandler  *handler.HealthHandler

	// Auth resolves the request's user, either middleware.AuthMiddleware
	// or middleware.StaticUser.
	Auth func(http.Handler) http.Handler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	Logger           *zerolog.Logger
	CORSOrigins      []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
		r.Use(middleware.NewLoggingMiddleware(logger).Wrap)
	}
	r.Use(middleware.Recovery(logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.IdempotencyKeyHeader},
			ExposedHeaders:   []string{"X-Idempotency-Replay"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(cfg.Auth)
		}
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		// Cards and their invoices
		r.Route("/cards", func(r chi.Router) {
			r.Post("/", cfg.CardHandler.Create)
			r.Get("/", cfg.CardHandler.List)
			r.Get("/{id}", cfg.CardHandler.Get)
			r.Put("/{id}", cfg.CardHandler.Update)
			r.Delete("/{id}", cfg.CardHandler.Delete)
			r.Get("/{id}/usage", cfg.CardHandler.Usage)
			r.Post("/{id}/invoices/{year}/{month}/status", cfg.InvoiceHandler.SetStatus)
			r.Post("/{id}/invoices/{year}/{month}/import", cfg.InvoiceHandler.Import)
		})

		// Entries and series
		r.Route("/entries", func(r chi.Router) {
			r.Post("/", cfg.EntryHandler.Create)
			r.Get("/", cfg.EntryHandler.List)
			r.Get("/{id}", cfg.EntryHandler.Get)
			r.Put("/{id}", cfg.EntryHandler.Update)
			r.Delete("/{id}", cfg.EntryHandler.Delete)
			r.Post("/{id}/toggle-status", cfg.EntryHandler.ToggleStatus)
			r.Put("/{id}/forward", cfg.EntryHandler.UpdateForward)
			r.Delete("/{id}/forward", cfg.EntryHandler.DeleteForward)
		})

		r.Get("/months/{year}/{month}", cfg.InvoiceHandler.Month)

		r.Route("/summary/{year}/{month}", func(r chi.Router) {
			r.Get("/", cfg.SummaryHandler.Summary)
			r.Get("/history", cfg.SummaryHandler.History)
		})
	})

	return r
}
