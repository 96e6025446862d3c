// Package store opens the storage backend selected by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alexjvillani/afl-assistant/internal/awards"
	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/db"
	"github.com/alexjvillani/afl-assistant/internal/sqlitedb"
)

// Open connects to the configured backend. The returned func releases it.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (awards.Store, func(), error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, nil, err
	}
	switch cfg.Backend {
	case config.BackendPostgres:
		logger.Info("Connecting to database...", "backend", cfg.Backend)
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
		return pool, pool.Close, nil

	case config.BackendSQLite:
		s, err := sqlitedb.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open %s: %w", cfg.SQLitePath, err)
		}
		logger.Info("SQLite database opened", "path", cfg.SQLitePath)
		return s, func() {
			if err := s.Close(); err != nil {
				logger.Warn("Close sqlite database", "error", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
