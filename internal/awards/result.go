package awards

import (
	"fmt"
	"time"

	"github.com/alexjvillani/afl-assistant/internal/identity"
)

// RunResult tracks tag counts and errors from one resolution run.
type RunResult struct {
	RunID string
	Award string

	Total     int
	Exact     int
	ClubYear  int
	Span      int
	Ambiguous int
	NoMatch   int
	Malformed int

	Written         int
	CountsRefreshed int64
	Duration        time.Duration

	Records []identity.ResolutionRecord
	Errors  []string
}

// Record counts one resolution against its tag.
func (r *RunResult) Record(rec identity.ResolutionRecord) {
	r.Total++
	switch rec.Quality {
	case identity.QualityExact:
		r.Exact++
	case identity.QualityClubYear:
		r.ClubYear++
	case identity.QualitySpan:
		r.Span++
	case identity.QualityAmbiguous:
		r.Ambiguous++
	case identity.QualityNoMatch:
		r.NoMatch++
	}
	if rec.Malformed {
		r.Malformed++
	}
}

// Count returns the number of records tagged q.
func (r *RunResult) Count(q identity.MatchQuality) int {
	switch q {
	case identity.QualityExact:
		return r.Exact
	case identity.QualityClubYear:
		return r.ClubYear
	case identity.QualitySpan:
		return r.Span
	case identity.QualityAmbiguous:
		return r.Ambiguous
	case identity.QualityNoMatch:
		return r.NoMatch
	}
	return 0
}

// Matched is the number of records that carry a player id.
func (r *RunResult) Matched() int {
	return r.Exact + r.ClubYear + r.Span
}

// AddErrorf records a formatted error message.
func (r *RunResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the run.
func (r *RunResult) Summary() string {
	return fmt.Sprintf(
		"total=%d exact=%d club_year=%d span=%d ambiguous=%d no_match=%d malformed=%d written=%d errors=%d",
		r.Total, r.Exact, r.ClubYear, r.Span,
		r.Ambiguous, r.NoMatch, r.Malformed,
		r.Written, len(r.Errors),
	)
}
