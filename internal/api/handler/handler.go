// Package handler provides HTTP handlers for the review API.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexjvillani/afl-assistant/internal/api/respond"
	"github.com/alexjvillani/afl-assistant/internal/awards"
	"github.com/alexjvillani/afl-assistant/internal/cache"
	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/identity"
)

// Store is the read side of the storage backend used by the handlers.
type Store interface {
	ListResolutions(ctx context.Context, award config.AwardConfig, f awards.ListFilter) ([]identity.ResolutionRecord, error)
	CountAwards(ctx context.Context, playerID string, list []config.AwardConfig) (map[string]int, error)
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store    Store
	resolver *identity.Resolver
	cache    *cache.Cache
	cfg      *config.Config
	logger   *slog.Logger
}

// New creates a Handler with shared dependencies. res may be nil when the
// registry could not be loaded; /resolve then answers 503.
func New(store Store, res *identity.Resolver, c *cache.Cache, cfg *config.Config, logger *slog.Logger) *Handler {
	return &Handler{
		store:    store,
		resolver: res,
		cache:    c,
		cfg:      cfg,
		logger:   logger,
	}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	info := map[string]interface{}{
		"name":    "AFL Player Identity API",
		"version": "1.0.0",
		"status":  "running",
		"backend": h.cfg.Backend,
	}
	if h.resolver != nil {
		aliases, nicknames, clubs := h.resolver.Names().Counts()
		info["resolver"] = map[string]interface{}{
			"players":   h.resolver.Index().Players(),
			"keys":      h.resolver.Index().Len(),
			"name_data": h.resolver.Names().Version(),
			"aliases":   aliases,
			"nicknames": nicknames,
			"clubs":     clubs,
		}
	}
	respond.WriteJSONObject(w, http.StatusOK, info)
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(r.Context()); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
