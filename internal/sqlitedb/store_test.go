package sqlitedb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexjvillani/afl-assistant/internal/awards"
	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/identity"
)

const testSchema = `
CREATE TABLE players (
	player_id TEXT PRIMARY KEY,
	name TEXT,
	first_year INTEGER,
	last_year INTEGER,
	all_aus_count INTEGER DEFAULT 0
);
CREATE TABLE player_seasons (
	player_id TEXT,
	year INTEGER,
	team TEXT,
	PRIMARY KEY (player_id, year, team)
);
CREATE TABLE all_australian_selections (
	source TEXT,
	year INTEGER,
	club TEXT,
	raw_name TEXT,
	name_key TEXT,
	player_id TEXT,
	match_quality TEXT,
	candidates INTEGER,
	malformed INTEGER,
	raw_draft_pick TEXT,
	draft_pick_num INTEGER,
	extra TEXT,
	run_id TEXT
);
INSERT INTO players (player_id, name, first_year, last_year) VALUES
	('SmithJohn2', 'Smith, John', 1994, 2001),
	('SmithJohn1', 'Smith, John', 1990, 1996),
	('FyfeNat', 'Fyfe, Nat', 2010, NULL);
INSERT INTO player_seasons (player_id, year, team) VALUES
	('SmithJohn1', 1995, 'fremantle'),
	('SmithJohn2', 1995, 'carlton');
`

func intp(v int) *int       { return &v }
func strp(s string) *string { return &s }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "players.db")
	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	_, err = store.db.Exec(testSchema)
	require.NoError(t, err)
	return store
}

func aaRecords(runID string) []identity.ResolutionRecord {
	return []identity.ResolutionRecord{
		{
			RunID: runID, Source: "draftguru", Year: intp(1995), Club: strp("Fremantle"),
			RawName: "John Smith", Key: "john smith", PlayerID: strp("SmithJohn1"),
			Quality: identity.QualityClubYear, Candidates: 2,
			Extra: map[string]string{"draft_pick": "#12 (1989 National)"},
		},
		{
			RunID: runID, Source: "draftguru", Year: intp(1995), RawName: "John Smith",
			Key: "john smith", Quality: identity.QualityAmbiguous, Candidates: 2,
		},
		{
			RunID: runID, Source: "draftguru", RawName: "Nat Fyfe", Key: "nat fyfe",
			PlayerID: strp("FyfeNat"), Quality: identity.QualityExact, Candidates: 1, Malformed: true,
		},
	}
}

func TestLoadRegistry(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	players, err := store.LoadPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 3)
	assert.Equal(t, "SmithJohn2", players[0].ID, "table order is kept")
	require.NotNil(t, players[2].FirstYear)
	assert.Nil(t, players[2].LastYear)

	seasons, err := store.LoadSeasons(ctx)
	require.NoError(t, err)
	assert.Len(t, seasons, 2)
	assert.Equal(t, identity.SeasonRecord{PlayerID: "SmithJohn1", Year: 1995, Club: "fremantle"}, seasons[0])

	require.NoError(t, store.HealthCheck(ctx))
}

func TestReplaceResolutions_Idempotent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	award := config.AwardRegistry["all_australian"]

	n, err := store.ReplaceResolutions(ctx, award, aaRecords("run-1"), false)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = store.ReplaceResolutions(ctx, award, aaRecords("run-2"), false)
	require.NoError(t, err)

	got, err := store.ListResolutions(ctx, award, awards.ListFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3, "re-running replaces rather than duplicates")

	var pickNum int
	require.NoError(t, store.db.QueryRow(
		`SELECT draft_pick_num FROM all_australian_selections WHERE club = 'Fremantle'`).Scan(&pickNum))
	assert.Equal(t, 12, pickNum)

	byQuality := map[identity.MatchQuality]identity.ResolutionRecord{}
	for _, rec := range got {
		assert.Equal(t, "run-2", rec.RunID)
		byQuality[rec.Quality] = rec
	}
	clubYear := byQuality[identity.QualityClubYear]
	require.NotNil(t, clubYear.PlayerID)
	assert.Equal(t, "SmithJohn1", *clubYear.PlayerID)
	assert.Equal(t, "#12 (1989 National)", clubYear.Extra["draft_pick"])
	assert.Nil(t, byQuality[identity.QualityAmbiguous].PlayerID)
	assert.Nil(t, byQuality[identity.QualityAmbiguous].Club)
	assert.True(t, byQuality[identity.QualityExact].Malformed)
	assert.Nil(t, byQuality[identity.QualityExact].Year)
}

func TestReplaceResolutions_ReplaceAllClearsSource(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	award := config.AwardRegistry["all_australian"]

	_, err := store.ReplaceResolutions(ctx, award, aaRecords("run-1"), false)
	require.NoError(t, err)

	_, err = store.ReplaceResolutions(ctx, award, aaRecords("run-2")[:1], true)
	require.NoError(t, err)

	got, err := store.ListResolutions(ctx, award, awards.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestListResolutions_Filter(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	award := config.AwardRegistry["all_australian"]

	_, err := store.ReplaceResolutions(ctx, award, aaRecords("run-1"), false)
	require.NoError(t, err)

	ambiguous, err := store.ListResolutions(ctx, award, awards.ListFilter{Quality: identity.QualityAmbiguous})
	require.NoError(t, err)
	require.Len(t, ambiguous, 1)
	assert.Equal(t, 2, ambiguous[0].Candidates)

	limited, err := store.ListResolutions(ctx, award, awards.ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	all, err := store.ListResolutions(ctx, award, awards.ListFilter{})
	require.NoError(t, err)
	assert.Nil(t, all[len(all)-1].Year, "rows without a year sort last")
}

func TestCountsAndRefresh(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	award := config.AwardRegistry["all_australian"]

	_, err := store.ReplaceResolutions(ctx, award, aaRecords("run-1"), false)
	require.NoError(t, err)

	counts, err := store.CountAwards(ctx, "SmithJohn1", []config.AwardConfig{award})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"all_australian": 1}, counts)

	n, err := store.RefreshAwardCounts(ctx, award)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	var stored int
	require.NoError(t, store.db.QueryRow(`SELECT all_aus_count FROM players WHERE player_id = 'FyfeNat'`).Scan(&stored))
	assert.Equal(t, 1, stored)

	_, err = store.CountAwards(ctx, "SmithJohn1", []config.AwardConfig{config.AwardRegistry["rising_star"]})
	assert.Error(t, err, "missing award table")
}

func TestWriteLock(t *testing.T) {
	store := openTestStore(t)
	other := flock.New(store.Path() + ".lock")
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	defer other.Unlock()

	_, err = store.ReplaceResolutions(context.Background(), config.AwardRegistry["all_australian"], aaRecords("x"), false)
	assert.ErrorIs(t, err, ErrLocked)
}
