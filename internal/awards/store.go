// Package awards orchestrates resolution runs: it builds the identity indexes
// from a registry, resolves an award's mention feed and hands the tagged
// records to a Writer.
package awards

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/identity"
)

// ErrUnknownAward is returned for an award id missing from the registry.
var ErrUnknownAward = errors.New("unknown award")

// Lookup returns the registry entry for id.
func Lookup(id string) (config.AwardConfig, error) {
	award, ok := config.AwardRegistry[id]
	if !ok {
		return config.AwardConfig{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownAward, id, config.AwardIDs())
	}
	return award, nil
}

// LookupAll resolves a list of award ids; an empty list means every award.
func LookupAll(ids []string) ([]config.AwardConfig, error) {
	if len(ids) == 0 {
		ids = config.AwardIDs()
	}
	out := make([]config.AwardConfig, 0, len(ids))
	for _, id := range ids {
		award, err := Lookup(id)
		if err != nil {
			return nil, err
		}
		out = append(out, award)
	}
	return out, nil
}

// Registry supplies the authoritative player and season data.
type Registry interface {
	LoadPlayers(ctx context.Context) ([]identity.PlayerRecord, error)
	LoadSeasons(ctx context.Context) ([]identity.SeasonRecord, error)
}

// Writer persists resolutions and maintains per-player award counts.
//
// ReplaceResolutions is idempotent: rows are keyed by
// (source, year, club, raw_name) and replaced wholesale. With replaceAll set
// every existing row of the records' sources is removed first.
type Writer interface {
	ReplaceResolutions(ctx context.Context, award config.AwardConfig, records []identity.ResolutionRecord, replaceAll bool) (int, error)
	CountAwards(ctx context.Context, playerID string, awards []config.AwardConfig) (map[string]int, error)
	RefreshAwardCounts(ctx context.Context, award config.AwardConfig) (int64, error)
}

// ListFilter narrows ListResolutions. Zero values mean no filter.
type ListFilter struct {
	Quality identity.MatchQuality
	Limit   int
}

// Store is a complete storage backend.
type Store interface {
	Registry
	Writer
	ListResolutions(ctx context.Context, award config.AwardConfig, f ListFilter) ([]identity.ResolutionRecord, error)
	HealthCheck(ctx context.Context) error
}
