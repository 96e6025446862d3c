package provider

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/alexjvillani/afl-assistant/internal/identity"
)

// ErrEmptyFeed is returned when a feed decodes to zero rows.
var ErrEmptyFeed = errors.New("feed contains no rows")

var validate = validator.New()

// ReadPlayers decodes a registry player feed. Rows that fail to decode or
// validate are dropped and described in rejected; they never abort the read.
func ReadPlayers(r io.Reader) (players []identity.PlayerRecord, rejected []string, err error) {
	raws, err := decodeRows(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read players: %w", err)
	}
	players = make([]identity.PlayerRecord, 0, len(raws))
	for i, raw := range raws {
		var row PlayerRow
		if err := json.Unmarshal(raw, &row); err != nil {
			rejected = append(rejected, fmt.Sprintf("player row %d: %v", i+1, err))
			continue
		}
		if err := validate.Struct(row); err != nil {
			rejected = append(rejected, fmt.Sprintf("player row %d: %v", i+1, err))
			continue
		}
		if row.FirstYear != nil && row.LastYear != nil && *row.LastYear < *row.FirstYear {
			rejected = append(rejected, fmt.Sprintf("player row %d: last_year %d before first_year %d", i+1, *row.LastYear, *row.FirstYear))
			continue
		}
		players = append(players, row.Player())
	}
	return players, rejected, nil
}

// ReadSeasons decodes a season feed, dropping bad rows like ReadPlayers.
func ReadSeasons(r io.Reader) (seasons []identity.SeasonRecord, rejected []string, err error) {
	raws, err := decodeRows(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read seasons: %w", err)
	}
	seasons = make([]identity.SeasonRecord, 0, len(raws))
	for i, raw := range raws {
		var row SeasonRow
		if err := json.Unmarshal(raw, &row); err != nil {
			rejected = append(rejected, fmt.Sprintf("season row %d: %v", i+1, err))
			continue
		}
		if err := validate.Struct(row); err != nil {
			rejected = append(rejected, fmt.Sprintf("season row %d: %v", i+1, err))
			continue
		}
		seasons = append(seasons, row.Season())
	}
	return seasons, rejected, nil
}

// ReadMentions decodes a mention feed. Every row becomes a mention, however
// malformed; the resolver classifies those. A row that does not decode at all
// becomes a nameless mention carrying the decode error and the raw text in
// Extra, so it surfaces as a malformed no_match.
func ReadMentions(r io.Reader, defaultSource string) ([]identity.RawMention, error) {
	raws, err := decodeRows(r)
	if err != nil {
		return nil, fmt.Errorf("read mentions: %w", err)
	}
	mentions := make([]identity.RawMention, len(raws))
	for i, raw := range raws {
		var row MentionRow
		if err := json.Unmarshal(raw, &row); err != nil {
			mentions[i] = identity.RawMention{
				Source: defaultSource,
				Extra: map[string]string{
					ExtraDecodeError: err.Error(),
					ExtraRawRow:      truncate(string(raw), maxRawRow),
				},
			}
			continue
		}
		mentions[i] = row.Mention(defaultSource)
	}
	return mentions, nil
}

// Extra keys set on mentions whose row could not be decoded.
const (
	ExtraDecodeError = "decode_error"
	ExtraRawRow      = "raw_row"

	maxRawRow = 512
)

// decodeRows splits a feed into raw rows. It accepts either a JSON array or
// JSON Lines (one object per line, blank lines skipped). Only a feed whose
// framing cannot be read is an error; row contents are decoded by the caller.
func decodeRows(r io.Reader) ([]json.RawMessage, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFeed
	}
	if err != nil {
		return nil, err
	}

	var rows []json.RawMessage
	if first == '[' {
		if err := json.NewDecoder(br).Decode(&rows); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
	} else {
		sc := bufio.NewScanner(br)
		sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			rows = append(rows, json.RawMessage(bytes.Clone(line)))
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read line %d: %w", len(rows)+1, err)
		}
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFeed
	}
	return rows, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
