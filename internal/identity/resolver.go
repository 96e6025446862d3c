package identity

import "strings"

// Resolver maps raw mentions to registry players. It holds only frozen,
// read-only indexes, so one Resolver may serve any number of goroutines.
type Resolver struct {
	names   *NameData
	index   *CandidateIndex
	seasons *SeasonIndex
}

// NewResolver wires the frozen indexes together. seasons may be nil, in which
// case no club evidence is ever found.
func NewResolver(names *NameData, index *CandidateIndex, seasons *SeasonIndex) *Resolver {
	return &Resolver{names: names, index: index, seasons: seasons}
}

// Names returns the name data the resolver was built with.
func (r *Resolver) Names() *NameData { return r.names }

// Index returns the candidate index.
func (r *Resolver) Index() *CandidateIndex { return r.index }

// SeasonClubs returns the clubs a player is attested with in year.
func (r *Resolver) SeasonClubs(playerID string, year int) []string {
	return r.seasons.Clubs(playerID, year)
}

// Key is the lookup key for a raw name: normalized, then aliased.
func (r *Resolver) Key(rawName string) Key {
	return r.names.Aliases().Apply(Normalize(rawName))
}

// Candidates returns the registry players sharing rawName's key.
func (r *Resolver) Candidates(rawName string) []PlayerRecord {
	return r.index.Lookup(r.Key(rawName))
}

// Resolve decides which registry player a mention refers to.
//
// Precedence is fixed: a unique key match wins outright; otherwise a unique
// candidate attested with the hinted club in that year; otherwise a unique
// candidate whose career span contains the year. Anything left over is
// ambiguous. year and clubHint may be nil.
func (r *Resolver) Resolve(rawName string, year *int, clubHint *string) Resolution {
	cands := r.index.Lookup(r.Key(rawName))
	switch len(cands) {
	case 0:
		return Resolution{Quality: QualityNoMatch}
	case 1:
		return Resolution{PlayerID: cands[0].ID, Quality: QualityExact, Candidates: 1}
	}

	out := Resolution{Quality: QualityAmbiguous, Candidates: len(cands)}
	if year == nil {
		return out
	}

	if clubHint != nil {
		if code, ok := r.ClubCode(*clubHint); ok {
			if id, ok := only(cands, func(p PlayerRecord) bool {
				return r.seasons.Has(p.ID, *year, code)
			}); ok {
				out.PlayerID, out.Quality = id, QualityClubYear
				return out
			}
		}
	}

	if id, ok := only(cands, func(p PlayerRecord) bool { return p.ActiveIn(*year) }); ok {
		out.PlayerID, out.Quality = id, QualitySpan
	}
	return out
}

// ClubCode maps a club hint to a team code using the club table first and
// then the codes present in the season feed. Unknown hints report false.
func (r *Resolver) ClubCode(hint string) (string, bool) {
	if code, ok := r.names.ClubCode(hint); ok {
		return code, true
	}
	if code := clubCode(hint); r.seasons.KnownClub(code) {
		return code, true
	}
	if code := strings.ReplaceAll(string(Normalize(hint)), " ", ""); code != "" && r.seasons.KnownClub(code) {
		return code, true
	}
	return "", false
}

// ResolveMention resolves m and packages the outcome for persistence.
func (r *Resolver) ResolveMention(m RawMention) ResolutionRecord {
	res := r.Resolve(m.RawName, m.Year, m.Club)
	rec := ResolutionRecord{
		Source:     m.Source,
		Year:       m.Year,
		Club:       m.Club,
		RawName:    m.RawName,
		Key:        r.Key(m.RawName),
		Quality:    res.Quality,
		Candidates: res.Candidates,
		Malformed:  m.Year == nil || strings.TrimSpace(m.RawName) == "",
		Extra:      m.Extra,
	}
	if res.Quality.Resolved() {
		id := res.PlayerID
		rec.PlayerID = &id
	}
	return rec
}

// only returns the id of the single candidate satisfying keep.
func only(cands []PlayerRecord, keep func(PlayerRecord) bool) (string, bool) {
	var hit string
	n := 0
	for _, c := range cands {
		if keep(c) {
			hit = c.ID
			n++
			if n > 1 {
				return "", false
			}
		}
	}
	return hit, n == 1
}
