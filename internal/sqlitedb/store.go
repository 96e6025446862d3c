// Package sqlitedb is the SQLite storage backend. It reads the registry from
// a players.db file laid out like the stats scraper writes it and stores
// resolutions beside it.
package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/alexjvillani/afl-assistant/internal/config"
)

// ErrLocked is returned when another process holds the write lock.
var ErrLocked = errors.New("database is locked by another resolution run")

// Store manages registry reads and resolution writes backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Open connects to the database at path. Writers serialize on a lock file
// next to it (path + ".lock").
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	return &Store{db: db, path: path, lock: flock.New(path + ".lock")}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// HealthCheck runs a trivial query to verify the database is readable.
func (s *Store) HealthCheck(ctx context.Context) error {
	var n int
	return s.db.QueryRowContext(ctx, "SELECT 1").Scan(&n)
}

// withLock runs fn while holding the exclusive write lock.
func (s *Store) withLock(fn func() error) error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	defer s.lock.Unlock()
	return fn()
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

var (
	playersTable = quote(config.PlayersTable)
	seasonsTable = quote(config.PlayerSeasonsTable)
)
