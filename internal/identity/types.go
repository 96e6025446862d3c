// Package identity resolves free-text player mentions from secondary award
// sources to players in the authoritative registry.
//
// The flow is normalize -> alias -> candidate lookup -> disambiguate. Indexes
// are built once per run, frozen, and then shared read-only; Resolve never
// performs I/O and never fails, every mention yields a player id or none plus
// a MatchQuality explaining how the answer was reached.
package identity

// Key is a normalized comparison key derived from a player name.
type Key string

// MatchQuality is the confidence tag attached to every resolution.
type MatchQuality string

const (
	QualityExact     MatchQuality = "exact"
	QualityClubYear  MatchQuality = "club_year"
	QualitySpan      MatchQuality = "span"
	QualityAmbiguous MatchQuality = "ambiguous"
	QualityNoMatch   MatchQuality = "no_match"
)

// Qualities lists every tag in precedence order.
var Qualities = []MatchQuality{
	QualityExact, QualityClubYear, QualitySpan, QualityAmbiguous, QualityNoMatch,
}

// Resolved reports whether the tag carries a player id.
func (q MatchQuality) Resolved() bool {
	switch q {
	case QualityExact, QualityClubYear, QualitySpan:
		return true
	}
	return false
}

// Valid reports whether q is one of the known tags.
func (q MatchQuality) Valid() bool {
	for _, known := range Qualities {
		if q == known {
			return true
		}
	}
	return false
}

// PlayerRecord is a registry player. FirstYear/LastYear are nil when the
// registry has no career span for the player.
type PlayerRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FirstYear *int   `json:"first_year"`
	LastYear  *int   `json:"last_year"`
}

// ActiveIn reports whether year falls inside the career span. A missing
// bound never matches.
func (p PlayerRecord) ActiveIn(year int) bool {
	if p.FirstYear == nil || p.LastYear == nil {
		return false
	}
	return *p.FirstYear <= year && year <= *p.LastYear
}

// SeasonRecord attests that a player was listed with a club in a year.
type SeasonRecord struct {
	PlayerID string `json:"player_id"`
	Year     int    `json:"year"`
	Club     string `json:"club"`
}

// RawMention is one scraped row from a secondary source. Year is nil when the
// source row had no parseable year; Club is nil when the row had no club.
type RawMention struct {
	Source  string            `json:"source"`
	RawName string            `json:"raw_name"`
	Year    *int              `json:"year"`
	Club    *string           `json:"club"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// Resolution is the outcome of Resolver.Resolve. PlayerID is empty unless
// Quality.Resolved() is true. Candidates is the number of registry players
// sharing the mention's key.
type Resolution struct {
	PlayerID   string
	Quality    MatchQuality
	Candidates int
}

// ResolutionRecord is the persisted form of a resolved mention.
type ResolutionRecord struct {
	RunID      string            `json:"run_id,omitempty"`
	Source     string            `json:"source"`
	Year       *int              `json:"year"`
	Club       *string           `json:"club"`
	RawName    string            `json:"raw_name"`
	Key        Key               `json:"key"`
	PlayerID   *string           `json:"player_id"`
	Quality    MatchQuality      `json:"match_quality"`
	Candidates int               `json:"candidates"`
	Malformed  bool              `json:"malformed,omitempty"`
	Extra      map[string]string `json:"extra,omitempty"`
}
