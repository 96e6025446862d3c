package provider

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alexjvillani/afl-assistant/internal/identity"
)

// FileRegistry loads the registry from exported JSON feed files instead of a
// database. SeasonsPath may be empty, leaving the season index empty.
type FileRegistry struct {
	PlayersPath string
	SeasonsPath string
	Logger      *slog.Logger
}

// LoadPlayers reads and validates the players feed.
func (f FileRegistry) LoadPlayers(ctx context.Context) ([]identity.PlayerRecord, error) {
	file, err := os.Open(f.PlayersPath)
	if err != nil {
		return nil, fmt.Errorf("open players feed: %w", err)
	}
	defer file.Close()

	players, rejected, err := ReadPlayers(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.PlayersPath, err)
	}
	f.logRejected(f.PlayersPath, rejected)
	return players, nil
}

// LoadSeasons reads and validates the seasons feed.
func (f FileRegistry) LoadSeasons(ctx context.Context) ([]identity.SeasonRecord, error) {
	if f.SeasonsPath == "" {
		return nil, nil
	}
	file, err := os.Open(f.SeasonsPath)
	if err != nil {
		return nil, fmt.Errorf("open seasons feed: %w", err)
	}
	defer file.Close()

	seasons, rejected, err := ReadSeasons(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.SeasonsPath, err)
	}
	f.logRejected(f.SeasonsPath, rejected)
	return seasons, nil
}

func (f FileRegistry) logRejected(path string, rejected []string) {
	if f.Logger == nil || len(rejected) == 0 {
		return
	}
	f.Logger.Warn("Rejected registry rows", "file", path, "count", len(rejected))
	for _, r := range rejected {
		f.Logger.Debug("rejected row", "file", path, "error", r)
	}
}

// ReadMentionsFile reads a mention feed from path.
func ReadMentionsFile(path, defaultSource string) ([]identity.RawMention, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mention feed: %w", err)
	}
	defer file.Close()

	mentions, err := ReadMentions(file, defaultSource)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return mentions, nil
}
