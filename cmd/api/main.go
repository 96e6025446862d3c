// Command api serves the read-only review API over stored resolutions.
//
// Usage:
//
//	afl-api
//	API_PORT=8080 STORE_BACKEND=sqlite SQLITE_PATH=players.db afl-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/alexjvillani/afl-assistant/internal/api"
	"github.com/alexjvillani/afl-assistant/internal/awards"
	"github.com/alexjvillani/afl-assistant/internal/cache"
	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/identity"
	"github.com/alexjvillani/afl-assistant/internal/store"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	st, closeStore, err := store.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// The resolver backs /api/v1/resolve only; the rest of the API works
	// without it.
	var res *identity.Resolver
	names, err := identity.LoadNameData(cfg.NameDataFile)
	if err != nil {
		logger.Warn("Name data unavailable, resolver disabled", "error", err)
	} else if res, err = awards.BuildResolver(ctx, st, names, logger); err != nil {
		logger.Warn("Registry unavailable, resolver disabled", "error", err)
		res = nil
	}

	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	router := api.NewRouter(st, res, appCache, cfg, logger)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting AFL Player Identity API",
			"addr", addr,
			"environment", cfg.Environment,
			"backend", cfg.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
