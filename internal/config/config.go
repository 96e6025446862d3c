// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Award registry: one entry per secondary-source award table
// --------------------------------------------------------------------------

// AwardConfig describes where resolved mentions of an award are stored and
// which players column holds the per-player count.
type AwardConfig struct {
	ID          string
	Name        string
	Table       string
	CountColumn string
	Source      string // default source tag when a feed row has none
}

var AwardRegistry = map[string]AwardConfig{
	"all_australian": {
		ID: "all_australian", Name: "All-Australian team",
		Table: "all_australian_selections", CountColumn: "all_aus_count", Source: "draftguru",
	},
	"best_and_fairest": {
		ID: "best_and_fairest", Name: "Club best and fairest",
		Table: "best_and_fairest", CountColumn: "bnf_count", Source: "draftguru",
	},
	"club_champion": {
		ID: "club_champion", Name: "Club champion medal",
		Table: "club_champion_medals", CountColumn: "club_champion_count", Source: "wikipedia",
	},
	"rising_star": {
		ID: "rising_star", Name: "Rising Star nomination",
		Table: "rising_star_nominations", CountColumn: "rising_star_noms", Source: "zerohanger",
	},
	"22under22": {
		ID: "22under22", Name: "22 Under 22 team",
		Table: "player_22u22", CountColumn: "u22_count", Source: "wikipedia",
	},
	"wooden_spoon": {
		ID: "wooden_spoon", Name: "Wooden spoon squad",
		Table: "wooden_spoons", CountColumn: "wooden_spoon_count", Source: "wikipedia",
	},
}

// AwardIDs returns the registry keys in sorted order.
func AwardIDs() []string {
	ids := make([]string, 0, len(AwardRegistry))
	for id := range AwardRegistry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// --------------------------------------------------------------------------
// Table names: single source of truth for the registry tables
// --------------------------------------------------------------------------

const (
	PlayersTable       = "players"
	PlayerSeasonsTable = "player_seasons"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	// Storage
	Backend        string // postgres or sqlite
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration
	SQLitePath     string

	// Resolution
	NameDataFile   string
	ResolveWorkers int

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	LogLevel    slog.Level

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Backend:        strings.ToLower(envOr("STORE_BACKEND", BackendPostgres)),
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 4),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,
		SQLitePath:     envOr("SQLITE_PATH", "players.db"),

		NameDataFile:   envOr("NAME_DATA_FILE", ""),
		ResolveWorkers: envInt("RESOLVE_WORKERS", 1),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    envLevel("LOG_LEVEL", slog.LevelInfo),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings every command needs. Connection settings are
// checked by ValidateStore, only when a store is opened.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendPostgres, BackendSQLite:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q (want %s or %s)", c.Backend, BackendPostgres, BackendSQLite)
	}
	if c.ResolveWorkers < 1 {
		c.ResolveWorkers = 1
	}
	return nil
}

// ValidateStore checks the selected backend's connection settings.
func (c *Config) ValidateStore() error {
	switch c.Backend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for the %s backend", BackendPostgres)
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must be set for the %s backend", BackendSQLite)
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(v)); err == nil {
			return lvl
		}
	}
	return fallback
}
