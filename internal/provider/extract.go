package provider

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ExtractYear normalizes a year from the formats scrapers emit.
//
// JSON numbers arrive as float64, table cells as strings ("1995", " 1995 ",
// "1995.0"). Anything else, including fractional values, yields ok=false.
func ExtractYear(val interface{}) (int, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.Atoi(s); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
			return int(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

var draftPickRe = regexp.MustCompile(`#\s*(\d+)`)

// ParseDraftPick pulls the pick number out of a raw draft string such as
// "#12 (2009 National)". Rookie-list and undrafted strings yield ok=false.
func ParseDraftPick(raw string) (int, bool) {
	m := draftPickRe.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// DraftPick returns the raw draft text carried in a mention's extra fields
// and its parsed pick number. Either may be nil.
func DraftPick(extra map[string]string) (raw *string, num *int) {
	s := strings.TrimSpace(extra["draft_pick"])
	if s == "" {
		return nil, nil
	}
	raw = &s
	if n, ok := ParseDraftPick(s); ok {
		num = &n
	}
	return raw, num
}
