// Package provider defines the feed row shapes that scrapers hand to the
// resolver, and converts them into identity types. These structs are the
// contract between the external fetch layer and the resolution run: scrapers
// output these, the run resolves and persists them.
//
// Adding a new award source means emitting MentionRow values. The resolver
// and the storage layer never change.
package provider

import (
	"strings"

	"github.com/alexjvillani/afl-assistant/internal/identity"
)

// PlayerRow is one registry player as exported by the stats site scraper.
type PlayerRow struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	FirstYear *int   `json:"first_year,omitempty" validate:"omitempty,gte=1858,lte=2100"`
	LastYear  *int   `json:"last_year,omitempty" validate:"omitempty,gte=1858,lte=2100"`
}

// SeasonRow is one (player, year, club) registration.
type SeasonRow struct {
	PlayerID string `json:"player_id" validate:"required"`
	Year     int    `json:"year" validate:"gte=1858,lte=2100"`
	Club     string `json:"club" validate:"required"`
}

// MentionRow is one scraped award row. Year is left untyped because sources
// emit numbers, numeric strings, or nothing at all.
type MentionRow struct {
	Source  string            `json:"source"`
	RawName string            `json:"raw_name"`
	Year    interface{}       `json:"year"`
	Club    *string           `json:"club,omitempty"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// Player converts the row into a registry record.
func (r PlayerRow) Player() identity.PlayerRecord {
	return identity.PlayerRecord{
		ID:        strings.TrimSpace(r.ID),
		Name:      strings.TrimSpace(r.Name),
		FirstYear: r.FirstYear,
		LastYear:  r.LastYear,
	}
}

// Season converts the row into a season record.
func (r SeasonRow) Season() identity.SeasonRecord {
	return identity.SeasonRecord{
		PlayerID: strings.TrimSpace(r.PlayerID),
		Year:     r.Year,
		Club:     r.Club,
	}
}

// Mention converts the row into a raw mention. defaultSource fills in rows
// that carry no source tag. Unparseable years become nil; blank clubs nil.
func (r MentionRow) Mention(defaultSource string) identity.RawMention {
	m := identity.RawMention{
		Source:  strings.TrimSpace(r.Source),
		RawName: r.RawName,
		Extra:   r.Extra,
	}
	if m.Source == "" {
		m.Source = defaultSource
	}
	if year, ok := ExtractYear(r.Year); ok {
		m.Year = &year
	}
	if r.Club != nil && strings.TrimSpace(*r.Club) != "" {
		club := strings.TrimSpace(*r.Club)
		m.Club = &club
	}
	return m
}
