package identity

import "strings"

// keySet is an insertion-ordered set of non-empty keys.
type keySet struct {
	seen map[Key]struct{}
	keys []Key
}

func newKeySet() *keySet {
	return &keySet{seen: make(map[Key]struct{}, 6)}
}

func (s *keySet) add(k Key) {
	if k == "" {
		return
	}
	if _, dup := s.seen[k]; dup {
		return
	}
	s.seen[k] = struct{}{}
	s.keys = append(s.keys, k)
}

// addOrders adds "given surname" and "surname given".
func (s *keySet) addOrders(given, surname string) {
	s.add(Normalize(given + " " + surname))
	s.add(Normalize(surname + " " + given))
}

// Variants returns every key under which a registry player named name should
// be discoverable. The base key always comes first; order is deterministic.
//
// Registry names are usually "Surname, Given". For those both word orders are
// emitted. For any name, a given part containing single-letter initials also
// yields the initials-free form, and a given name found in the nickname table
// yields the expanded form, each in both orders.
func (d *NameData) Variants(name string) []Key {
	set := newKeySet()
	set.add(Normalize(name))

	given, surname, ok := splitName(name)
	if !ok {
		return set.keys
	}
	if strings.Contains(name, ",") {
		set.addOrders(given, surname)
	}

	givenTokens := Normalize(given).tokens()
	if len(givenTokens) == 0 {
		return set.keys
	}

	stripped := withoutInitials(givenTokens)
	if len(stripped) > 0 && len(stripped) != len(givenTokens) {
		set.addOrders(strings.Join(stripped, " "), surname)
	}

	for _, toks := range [][]string{givenTokens, stripped} {
		if len(toks) == 0 {
			continue
		}
		if full, ok := d.Nickname(toks[0]); ok {
			expanded := append([]string{full}, toks[1:]...)
			set.addOrders(strings.Join(expanded, " "), surname)
		}
	}
	return set.keys
}

// splitName separates a display name into given and surname parts. A comma
// marks "Surname, Given"; otherwise the first word is the given name and the
// rest the surname. Single-word names have no split.
func splitName(name string) (given, surname string, ok bool) {
	if before, after, found := strings.Cut(name, ","); found {
		surname, given = strings.TrimSpace(before), strings.TrimSpace(after)
		return given, surname, given != "" && surname != ""
	}
	toks := Normalize(name).tokens()
	if len(toks) < 2 {
		return "", "", false
	}
	return toks[0], strings.Join(toks[1:], " "), true
}

// withoutInitials drops single-letter tokens.
func withoutInitials(toks []string) []string {
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		if len(t) > 1 {
			out = append(out, t)
		}
	}
	return out
}
