// Package api serves the read-only review API over stored resolutions and
// the in-memory resolver.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/alexjvillani/afl-assistant/internal/api/handler"
	"github.com/alexjvillani/afl-assistant/internal/cache"
	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/identity"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(store handler.Store, res *identity.Resolver, appCache *cache.Cache, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	h := handler.New(store, res, appCache, cfg, logger)

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/awards", h.ListAwards)
		r.Get("/resolutions", h.GetResolutions)
		r.Get("/players/{playerID}/awards", h.GetPlayerAwards)
		r.Get("/resolve", h.Resolve)
	})

	return r
}
