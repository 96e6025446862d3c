package identity

import "slices"

type seasonKey struct {
	playerID string
	year     int
}

// SeasonBuilder accumulates season records before the season index is frozen.
type SeasonBuilder struct {
	clubs  map[seasonKey]map[string]struct{}
	known  map[string]struct{}
	frozen bool
}

// NewSeasonBuilder starts an empty season index.
func NewSeasonBuilder() *SeasonBuilder {
	return &SeasonBuilder{
		clubs: make(map[seasonKey]map[string]struct{}),
		known: make(map[string]struct{}),
	}
}

// Add records that s.PlayerID played for s.Club in s.Year. Rows without a
// player or club are ignored. Add panics after Freeze.
func (b *SeasonBuilder) Add(s SeasonRecord) {
	if b.frozen {
		panic("identity: SeasonBuilder.Add after Freeze")
	}
	code := clubCode(s.Club)
	if s.PlayerID == "" || code == "" {
		return
	}
	k := seasonKey{s.PlayerID, s.Year}
	set, ok := b.clubs[k]
	if !ok {
		set = make(map[string]struct{}, 1)
		b.clubs[k] = set
	}
	set[code] = struct{}{}
	b.known[code] = struct{}{}
}

// Freeze ends construction and returns the read-only index.
func (b *SeasonBuilder) Freeze() *SeasonIndex {
	b.frozen = true
	idx := &SeasonIndex{clubs: b.clubs, known: b.known}
	b.clubs, b.known = nil, nil
	return idx
}

// SeasonIndex answers which clubs a player was listed with in a year. It is
// corroborating evidence only and never identifies a player on its own.
type SeasonIndex struct {
	clubs map[seasonKey]map[string]struct{}
	known map[string]struct{}
}

// Has reports whether playerID is attested with club in year.
func (idx *SeasonIndex) Has(playerID string, year int, club string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.clubs[seasonKey{playerID, year}][clubCode(club)]
	return ok
}

// Clubs returns the sorted club codes for playerID in year; empty if none.
func (idx *SeasonIndex) Clubs(playerID string, year int) []string {
	if idx == nil {
		return nil
	}
	set := idx.clubs[seasonKey{playerID, year}]
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Len is the number of (player, year) pairs indexed.
func (idx *SeasonIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.clubs)
}

// KnownClub reports whether any season row uses code.
func (idx *SeasonIndex) KnownClub(code string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.known[clubCode(code)]
	return ok
}
