package identity

import "slices"

// IndexBuilder accumulates registry players before the candidate index is
// frozen. It is not safe for concurrent use.
type IndexBuilder struct {
	names   *NameData
	keys    map[Key][]PlayerRecord
	players []PlayerRecord
	frozen  bool
}

// NewIndexBuilder starts a candidate index that expands registry names with
// the given name data.
func NewIndexBuilder(names *NameData) *IndexBuilder {
	return &IndexBuilder{
		names: names,
		keys:  make(map[Key][]PlayerRecord),
	}
}

// Add registers p under every variant of its name. A player is listed at most
// once per key. Add panics after Freeze.
func (b *IndexBuilder) Add(p PlayerRecord) {
	if b.frozen {
		panic("identity: IndexBuilder.Add after Freeze")
	}
	b.players = append(b.players, p)
	for _, k := range b.names.Variants(p.Name) {
		list := b.keys[k]
		if slices.ContainsFunc(list, func(c PlayerRecord) bool { return c.ID == p.ID }) {
			continue
		}
		b.keys[k] = append(list, p)
	}
}

// Freeze ends construction and returns the read-only index. The builder
// cannot be used afterwards.
func (b *IndexBuilder) Freeze() *CandidateIndex {
	b.frozen = true
	idx := &CandidateIndex{keys: b.keys, players: b.players}
	b.keys, b.players = nil, nil
	return idx
}

// CandidateIndex maps comparison keys to registry players. Lists keep
// registry order. Safe for concurrent reads.
type CandidateIndex struct {
	keys    map[Key][]PlayerRecord
	players []PlayerRecord
}

// Lookup returns the players registered under k. The returned slice is
// shared; callers must not modify it.
func (idx *CandidateIndex) Lookup(k Key) []PlayerRecord {
	if k == "" {
		return nil
	}
	return slices.Clip(idx.keys[k])
}

// Len is the number of distinct keys.
func (idx *CandidateIndex) Len() int { return len(idx.keys) }

// Players is the number of registry players indexed.
func (idx *CandidateIndex) Players() int { return len(idx.players) }

// SharedKeys counts keys with more than one candidate, the population that
// needs club or span evidence.
func (idx *CandidateIndex) SharedKeys() int {
	n := 0
	for _, list := range idx.keys {
		if len(list) > 1 {
			n++
		}
	}
	return n
}
