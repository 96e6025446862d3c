package provider

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want int
		ok   bool
	}{
		{"nil", nil, 0, false},
		{"json number", float64(1995), 1995, true},
		{"fractional", 1995.5, 0, false},
		{"int", 2001, 2001, true},
		{"int64", int64(2002), 2002, true},
		{"string", " 2003 ", 2003, true},
		{"float string", "2004.0", 2004, true},
		{"garbage", "twenty", 0, false},
		{"empty string", "", 0, false},
		{"bool", true, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractYear(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDraftPick(t *testing.T) {
	n, ok := ParseDraftPick("#12 (2009 National)")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	n, ok = ParseDraftPick("Pick # 3")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = ParseDraftPick("Rookie elevation")
	assert.False(t, ok)

	_, ok = ParseDraftPick("")
	assert.False(t, ok)
}

func TestReadMentions_JSONArray(t *testing.T) {
	feed := `[
		{"source": "draftguru", "raw_name": "Nat Fyfe", "year": 2015, "club": "Fremantle", "extra": {"draft_pick": "#20"}},
		{"raw_name": "John Smith", "year": "1995", "club": "  "},
		{"raw_name": "", "year": "n/a"}
	]`

	mentions, err := ReadMentions(strings.NewReader(feed), "fallback")
	require.NoError(t, err)
	require.Len(t, mentions, 3)

	assert.Equal(t, "draftguru", mentions[0].Source)
	require.NotNil(t, mentions[0].Year)
	assert.Equal(t, 2015, *mentions[0].Year)
	require.NotNil(t, mentions[0].Club)
	assert.Equal(t, "Fremantle", *mentions[0].Club)
	assert.Equal(t, "#20", mentions[0].Extra["draft_pick"])

	assert.Equal(t, "fallback", mentions[1].Source)
	require.NotNil(t, mentions[1].Year)
	assert.Equal(t, 1995, *mentions[1].Year)
	assert.Nil(t, mentions[1].Club, "blank club is no club")

	assert.Nil(t, mentions[2].Year)
	assert.Equal(t, "", mentions[2].RawName)
}

func TestReadMentions_JSONLines(t *testing.T) {
	feed := "\n{\"raw_name\": \"A B\", \"year\": 2000}\n{\"raw_name\": \"C D\", \"year\": null}\n"

	mentions, err := ReadMentions(strings.NewReader(feed), "src")
	require.NoError(t, err)
	require.Len(t, mentions, 2)
	assert.Equal(t, "A B", mentions[0].RawName)
	assert.Nil(t, mentions[1].Year)
}

func TestReadMentions_Empty(t *testing.T) {
	for _, feed := range []string{"", "   \n", "[]"} {
		_, err := ReadMentions(strings.NewReader(feed), "src")
		assert.True(t, errors.Is(err, ErrEmptyFeed), "feed %q: %v", feed, err)
	}
}

func TestReadMentions_BadArray(t *testing.T) {
	_, err := ReadMentions(strings.NewReader(`[{"raw_name": `), "src")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyFeed))
}

func TestReadMentions_BadRowKeepsFeed(t *testing.T) {
	feed := `{"raw_name": "Nat Fyfe", "year": 2015}
{"raw_name": 42, "year": 2015}
{"raw_name": "broken
{"raw_name": "Lance Franklin", "year": 2008}
`
	mentions, err := ReadMentions(strings.NewReader(feed), "src")
	require.NoError(t, err)
	require.Len(t, mentions, 4)

	assert.Equal(t, "Nat Fyfe", mentions[0].RawName)
	assert.Equal(t, "Lance Franklin", mentions[3].RawName)

	for _, bad := range mentions[1:3] {
		assert.Empty(t, bad.RawName)
		assert.Equal(t, "src", bad.Source)
		assert.NotEmpty(t, bad.Extra[ExtraDecodeError])
		assert.NotEmpty(t, bad.Extra[ExtraRawRow])
	}
	assert.Contains(t, mentions[1].Extra[ExtraRawRow], "42")
}

func TestReadMentions_BadRowInArray(t *testing.T) {
	feed := `[{"raw_name": "A B"}, {"raw_name": ["x"]}, {"raw_name": "C D"}]`
	mentions, err := ReadMentions(strings.NewReader(feed), "src")
	require.NoError(t, err)
	require.Len(t, mentions, 3)
	assert.Contains(t, mentions[1].Extra[ExtraDecodeError], "raw_name")
	assert.Equal(t, "C D", mentions[2].RawName)
}

func TestReadPlayers_UndecodableRowRejected(t *testing.T) {
	feed := "{\"id\": \"p1\", \"name\": \"Smith, John\"}\n{\"id\": 7, \"name\": \"Bad, Row\"}\n"
	players, rejected, err := ReadPlayers(strings.NewReader(feed))
	require.NoError(t, err)
	assert.Len(t, players, 1)
	require.Len(t, rejected, 1)
	assert.Contains(t, rejected[0], "player row 2")
}

func TestReadPlayers_RejectsInvalidRows(t *testing.T) {
	feed := `[
		{"id": "NatFyfe", "name": "Fyfe, Nat", "first_year": 2010, "last_year": 2024},
		{"id": "", "name": "Nobody"},
		{"id": "x", "name": "Backwards, Bob", "first_year": 2000, "last_year": 1990},
		{"id": "old", "name": "Old, Timer", "first_year": 1700},
		{"id": " open ", "name": " Open, Ended ", "first_year": 2020}
	]`

	players, rejected, err := ReadPlayers(strings.NewReader(feed))
	require.NoError(t, err)

	require.Len(t, players, 2)
	assert.Equal(t, "NatFyfe", players[0].ID)
	assert.Equal(t, "open", players[1].ID)
	assert.Equal(t, "Open, Ended", players[1].Name)
	assert.Nil(t, players[1].LastYear)
	assert.Len(t, rejected, 3)
}

func TestReadSeasons(t *testing.T) {
	feed := `{"player_id": "p1", "year": 1995, "club": "fremantle"}
{"player_id": "p1", "year": 0, "club": "fremantle"}
{"player_id": "", "year": 1996, "club": "carlton"}`

	seasons, rejected, err := ReadSeasons(strings.NewReader(feed))
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	assert.Equal(t, "fremantle", seasons[0].Club)
	assert.Len(t, rejected, 2)
}

func TestFileRegistry(t *testing.T) {
	dir := t.TempDir()
	players := filepath.Join(dir, "players.json")
	seasons := filepath.Join(dir, "seasons.jsonl")
	require.NoError(t, os.WriteFile(players, []byte(`[{"id": "p1", "name": "Smith, John", "first_year": 1990, "last_year": 1996}, {"id": ""}]`), 0o644))
	require.NoError(t, os.WriteFile(seasons, []byte(`{"player_id": "p1", "year": 1995, "club": "fremantle"}`), 0o644))

	reg := FileRegistry{PlayersPath: players, SeasonsPath: seasons}
	p, err := reg.LoadPlayers(context.Background())
	require.NoError(t, err)
	assert.Len(t, p, 1)

	s, err := reg.LoadSeasons(context.Background())
	require.NoError(t, err)
	assert.Len(t, s, 1)

	none, err := FileRegistry{PlayersPath: players}.LoadSeasons(context.Background())
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = FileRegistry{PlayersPath: filepath.Join(dir, "missing.json")}.LoadPlayers(context.Background())
	assert.Error(t, err)
}

func TestReadMentionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

	_, err := ReadMentionsFile(path, "src")
	assert.ErrorIs(t, err, ErrEmptyFeed)
}

func TestDraftPick(t *testing.T) {
	raw, num := DraftPick(map[string]string{"draft_pick": " #7 (2014 National) "})
	require.NotNil(t, raw)
	require.NotNil(t, num)
	assert.Equal(t, "#7 (2014 National)", *raw)
	assert.Equal(t, 7, *num)

	raw, num = DraftPick(map[string]string{"draft_pick": "Rookie"})
	require.NotNil(t, raw)
	assert.Nil(t, num)

	raw, num = DraftPick(nil)
	assert.Nil(t, raw)
	assert.Nil(t, num)
}
