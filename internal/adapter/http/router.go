package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/betops/settlecore/internal/adapter/http/handler"
	"github.com/betops/settlecore/internal/adapter/http/middleware"
	"github.com/betops/settlecore/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler        *handler.AccountHandler
	EntryHandler          *handler.EntryHandler
	ConversionHandler     *handler.ConversionHandler
	RateHandler           *handler.RateHandler
	ProjectHandler        *handler.ProjectHandler
	ReconciliationHandler *handler.ReconciliationHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
	RateLimiter           *middleware.RateLimiter
	Logger                zerolog.Logger
}

// NewRouter creates a new HTTP router for the internal API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health and observability endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Accounts and ledger
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/balance", cfg.AccountHandler.Balance)
			r.Post("/{id}/entries", cfg.EntryHandler.Post)
			r.Get("/{id}/entries", cfg.EntryHandler.ListByAccount)
			r.Get("/{id}/discrepancy", cfg.ReconciliationHandler.CheckAccount)
			r.Post("/{id}/reconcile", cfg.ReconciliationHandler.ApplyFix)
		})

		r.Get("/entries/{id}", cfg.EntryHandler.Get)

		// Conversions
		r.Route("/conversions", func(r chi.Router) {
			r.Post("/quote", cfg.ConversionHandler.Quote)
			r.Post("/snapshots", cfg.ConversionHandler.CreateSnapshot)
			r.Get("/snapshots/{id}", cfg.ConversionHandler.GetSnapshot)
		})

		// Rates
		r.Get("/rates/{currency}", cfg.RateHandler.Get)

		// Projects
		r.Route("/projects/{id}", func(r chi.Router) {
			r.Get("/config", cfg.ProjectHandler.GetConfig)
			r.Put("/config", cfg.ProjectHandler.SetConfig)
			r.Get("/consolidation", cfg.ProjectHandler.Consolidation)
			r.Post("/reconciliation", cfg.ReconciliationHandler.ReconcileProject)
		})
	})

	return r
}
