// Package api exposes a collision world over HTTP: stats, broad-phase
// queries, hit tests, debug snapshots, health probes and metrics.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opd-ai/go-collide/pkg/health"
	"github.com/opd-ai/go-collide/pkg/logging"
	"github.com/opd-ai/go-collide/pkg/world"
)

// RouterConfig contains the dependencies of the HTTP router.
type RouterConfig struct {
	// World is the world served (required)
	World *world.World

	// Health runs readiness checks. Nil serves an empty checker.
	Health *health.HealthChecker

	// Gatherer backs /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer

	// RateLimit configures request limiting. Nil uses DefaultRateLimitConfig.
	RateLimit *RateLimitConfig

	// CORSOrigins is the list of allowed origins. Nil allows localhost only.
	CORSOrigins []string

	// Logger receives handler errors. Nil discards them.
	Logger *logging.Logger

	// DisableLogging disables the request logger middleware.
	DisableLogging bool
}

type routerHandlers struct {
	world  *world.World
	logger *logging.Logger
}

// NewRouter constructs the HTTP router with middleware and routes. It
// starts no goroutines and opens no listeners, so it can be served with
// httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	limitCfg := DefaultRateLimitConfig
	if cfg.RateLimit != nil {
		limitCfg = *cfg.RateLimit
	}
	r.Use(NewRateLimiter(limitCfg).Middleware)

	origins := cfg.CORSOrigins
	if origins == nil {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	checker := cfg.Health
	if checker == nil {
		checker = health.NewHealthChecker()
	}
	r.Get("/healthz", checker.LivenessHandler)
	r.Get("/readyz", checker.ReadinessHandler)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	h := &routerHandlers{world: cfg.World, logger: logger}

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", h.handleGetStats)
		r.Get("/bodies", h.handleGetBodies)
		r.Get("/bodies/{id}", h.handleGetBody)
		r.Get("/query", h.handleQuery)
		r.Get("/hit", h.handleHitTest)
		r.Post("/step", h.handleStep)
		r.Get("/snapshot.png", h.handleSnapshot)
	})

	return r
}
