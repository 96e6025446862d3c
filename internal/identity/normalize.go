package identity

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// quoteFolder maps typographic apostrophes onto ASCII so they can be dropped
// in one pass. Non-breaking spaces become plain spaces.
var quoteFolder = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"‛", "'",
	"ʼ", "'",
	"＇", "'",
	"´", "'",
	"`", "'",
	" ", " ",
)

var (
	parenRe   = regexp.MustCompile(`\([^)]*\)`)
	nonKeyRe  = regexp.MustCompile(`[^a-z0-9 ]+`)
	spacingRe = regexp.MustCompile(`\s+`)
)

// Normalize converts arbitrary name text into its comparison key: lowercase
// ASCII letters, digits and single spaces. Accents are stripped, apostrophes
// removed and parenthesised text dropped. Empty input yields an empty key.
func Normalize(s string) Key {
	if s == "" {
		return ""
	}

	s = quoteFolder.Replace(s)

	// transform chains carry state and are not safe for concurrent use.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}

	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "'", "")
	s = parenRe.ReplaceAllString(s, " ")
	s = nonKeyRe.ReplaceAllString(s, " ")
	s = spacingRe.ReplaceAllString(s, " ")
	return Key(strings.TrimSpace(s))
}

// tokens splits a key into its space separated words.
func (k Key) tokens() []string {
	if k == "" {
		return nil
	}
	return strings.Split(string(k), " ")
}
