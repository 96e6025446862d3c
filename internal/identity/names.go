package identity

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed names.toml
var defaultNames []byte

// nameFile is the on-disk shape of the name data asset.
type nameFile struct {
	Version   int               `toml:"version"`
	Aliases   map[string]string `toml:"aliases"`
	Nicknames map[string]string `toml:"nicknames"`
	Clubs     map[string]string `toml:"clubs"`
}

// AliasTable rewrites known-bad source spellings to the key the registry
// uses. A miss leaves the key unchanged.
type AliasTable map[Key]Key

// Apply returns the corrected key for k, or k itself.
func (t AliasTable) Apply(k Key) Key {
	if to, ok := t[k]; ok {
		return to
	}
	return k
}

// NameData bundles the alias, nickname and club tables. It is immutable once
// loaded and safe to share between goroutines.
type NameData struct {
	version   int
	aliases   AliasTable
	nicknames map[string]string
	clubs     map[Key]string
	codes     map[string]struct{}
}

// DefaultNameData returns the tables embedded in the binary.
func DefaultNameData() (*NameData, error) {
	return ParseNameData(defaultNames)
}

// LoadNameData returns the embedded tables overlaid with the file at path.
// Entries in the file win over embedded ones. An empty path returns the
// embedded tables unchanged.
func LoadNameData(path string) (*NameData, error) {
	base, err := DefaultNameData()
	if err != nil {
		return nil, fmt.Errorf("embedded name data: %w", err)
	}
	if path == "" {
		return base, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read name data %s: %w", path, err)
	}
	overlay, err := ParseNameData(raw)
	if err != nil {
		return nil, fmt.Errorf("parse name data %s: %w", path, err)
	}
	return base.Merge(overlay), nil
}

// ParseNameData decodes a TOML name data document.
func ParseNameData(raw []byte) (*NameData, error) {
	var f nameFile
	if err := toml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode name data: %w", err)
	}
	return NewNameData(f.Version, f.Aliases, f.Nicknames, f.Clubs), nil
}

// NewNameData builds tables from plain maps. Alias and nickname entries are
// normalized on both sides; club names are normalized and club codes are
// trimmed and lowercased.
func NewNameData(version int, aliases, nicknames, clubs map[string]string) *NameData {
	d := &NameData{
		version:   version,
		aliases:   make(AliasTable, len(aliases)),
		nicknames: make(map[string]string, len(nicknames)),
		clubs:     make(map[Key]string, len(clubs)),
		codes:     make(map[string]struct{}, len(clubs)),
	}
	for from, to := range aliases {
		k, v := Normalize(from), Normalize(to)
		if k == "" || v == "" || k == v {
			continue
		}
		d.aliases[k] = v
	}
	for short, full := range nicknames {
		k, v := Normalize(short), Normalize(full)
		if k == "" || v == "" {
			continue
		}
		d.nicknames[string(k)] = string(v)
	}
	for name, code := range clubs {
		code = clubCode(code)
		if code == "" {
			continue
		}
		if k := Normalize(name); k != "" {
			d.clubs[k] = code
		}
		d.codes[code] = struct{}{}
	}
	return d
}

// Merge returns a copy of d with every entry of other applied on top. The
// higher version wins.
func (d *NameData) Merge(other *NameData) *NameData {
	out := &NameData{
		version:   max(d.version, other.version),
		aliases:   make(AliasTable, len(d.aliases)+len(other.aliases)),
		nicknames: make(map[string]string, len(d.nicknames)+len(other.nicknames)),
		clubs:     make(map[Key]string, len(d.clubs)+len(other.clubs)),
		codes:     make(map[string]struct{}, len(d.codes)+len(other.codes)),
	}
	for _, src := range []*NameData{d, other} {
		for k, v := range src.aliases {
			out.aliases[k] = v
		}
		for k, v := range src.nicknames {
			out.nicknames[k] = v
		}
		for k, v := range src.clubs {
			out.clubs[k] = v
		}
		for c := range src.codes {
			out.codes[c] = struct{}{}
		}
	}
	return out
}

// Version is the data asset version.
func (d *NameData) Version() int { return d.version }

// Aliases exposes the alias table.
func (d *NameData) Aliases() AliasTable { return d.aliases }

// Counts reports table sizes for logging.
func (d *NameData) Counts() (aliases, nicknames, clubs int) {
	return len(d.aliases), len(d.nicknames), len(d.clubs)
}

// Nickname returns the full given name for a short one.
func (d *NameData) Nickname(given string) (string, bool) {
	full, ok := d.nicknames[given]
	return full, ok
}

// ClubCode maps a club hint to a registry team code. The hint may be a
// display name ("North Melbourne"), an exact code ("kangaroos") or a display
// name whose space-stripped form is a code ("St Kilda" -> "stkilda").
func (d *NameData) ClubCode(hint string) (string, bool) {
	if strings.TrimSpace(hint) == "" {
		return "", false
	}
	k := Normalize(hint)
	if code, ok := d.clubs[k]; ok {
		return code, true
	}
	if code := clubCode(hint); d.knownCode(code) {
		return code, true
	}
	if code := strings.ReplaceAll(string(k), " ", ""); d.knownCode(code) {
		return code, true
	}
	return "", false
}

func (d *NameData) knownCode(code string) bool {
	_, ok := d.codes[code]
	return ok
}

// clubCode is the canonical spelling of a team code.
func clubCode(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
