package awards

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/identity"
	"github.com/alexjvillani/afl-assistant/internal/provider"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func intp(v int) *int       { return &v }
func strp(s string) *string { return &s }

type fakeStore struct {
	players []identity.PlayerRecord
	seasons []identity.SeasonRecord

	written    []identity.ResolutionRecord
	replaceAll bool
	refreshed  []string
	writeErr   error
}

func (f *fakeStore) LoadPlayers(context.Context) ([]identity.PlayerRecord, error) {
	return f.players, nil
}

func (f *fakeStore) LoadSeasons(context.Context) ([]identity.SeasonRecord, error) {
	return f.seasons, nil
}

func (f *fakeStore) ReplaceResolutions(_ context.Context, _ config.AwardConfig, records []identity.ResolutionRecord, replaceAll bool) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.written = append([]identity.ResolutionRecord(nil), records...)
	f.replaceAll = replaceAll
	return len(records), nil
}

func (f *fakeStore) CountAwards(context.Context, string, []config.AwardConfig) (map[string]int, error) {
	return nil, nil
}

func (f *fakeStore) RefreshAwardCounts(_ context.Context, award config.AwardConfig) (int64, error) {
	f.refreshed = append(f.refreshed, award.CountColumn)
	return 3, nil
}

func registry() *fakeStore {
	return &fakeStore{
		players: []identity.PlayerRecord{
			{ID: "NathanFyfe", Name: "Fyfe, Nathan", FirstYear: intp(2010), LastYear: intp(2024)},
			{ID: "JohnSmith1", Name: "Smith, John", FirstYear: intp(1990), LastYear: intp(1996)},
			{ID: "JohnSmith2", Name: "Smith, John", FirstYear: intp(1994), LastYear: intp(2001)},
		},
		seasons: []identity.SeasonRecord{
			{PlayerID: "JohnSmith1", Year: 1995, Club: "fremantle"},
			{PlayerID: "JohnSmith2", Year: 1995, Club: "carlton"},
		},
	}
}

func buildResolver(t *testing.T, reg Registry) *identity.Resolver {
	t.Helper()
	names := identity.NewNameData(1,
		map[string]string{"Nat Fyfe": "Nathan Fyfe"},
		nil,
		map[string]string{"Fremantle": "fremantle", "Carlton": "carlton"},
	)
	res, err := BuildResolver(context.Background(), reg, names, discard)
	require.NoError(t, err)
	return res
}

func mentions() []identity.RawMention {
	return []identity.RawMention{
		{RawName: "Nat Fyfe", Year: intp(2015), Club: strp("Fremantle")},
		{RawName: "John Smith", Year: intp(1995), Club: strp("Fremantle")},
		{RawName: "John Smith", Year: intp(1995)},
		{RawName: "Nobody Atall", Year: intp(2000)},
		{RawName: "", Year: nil},
	}
}

func TestLookup(t *testing.T) {
	award, err := Lookup("all_australian")
	require.NoError(t, err)
	assert.Equal(t, "all_australian_selections", award.Table)

	_, err = Lookup("brownlow")
	assert.True(t, errors.Is(err, ErrUnknownAward))
}

func TestLookupAll(t *testing.T) {
	all, err := LookupAll(nil)
	require.NoError(t, err)
	assert.Len(t, all, len(config.AwardRegistry))

	some, err := LookupAll([]string{"rising_star", "wooden_spoon"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "rising_star", some[0].ID)

	_, err = LookupAll([]string{"rising_star", "nope"})
	assert.ErrorIs(t, err, ErrUnknownAward)
}

func TestResolveAll_PreservesOrderAcrossWorkers(t *testing.T) {
	res := buildResolver(t, registry())

	var in []identity.RawMention
	for i := 0; i < 200; i++ {
		in = append(in, mentions()...)
	}

	serial, err := ResolveAll(context.Background(), res, in, 1, discard)
	require.NoError(t, err)
	parallel, err := ResolveAll(context.Background(), res, in, 8, discard)
	require.NoError(t, err)

	require.Len(t, parallel, len(in))
	assert.Equal(t, serial, parallel)
	for i, rec := range parallel {
		assert.Equal(t, in[i].RawName, rec.RawName, "index %d", i)
	}
}

func TestResolveAll_Cancelled(t *testing.T) {
	res := buildResolver(t, registry())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ResolveAll(ctx, res, mentions(), 2, discard)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveAll_Empty(t *testing.T) {
	res := buildResolver(t, registry())
	out, err := ResolveAll(context.Background(), res, nil, 4, discard)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRun_WritesTaggedRecords(t *testing.T) {
	store := registry()
	res := buildResolver(t, store)
	award := config.AwardRegistry["all_australian"]

	result, err := Run(context.Background(), store, res, award, mentions(),
		Options{Replace: true, RefreshCounts: true, Workers: 2}, discard)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 1, result.Exact)
	assert.Equal(t, 1, result.ClubYear)
	assert.Equal(t, 1, result.Ambiguous, "both John Smiths active in 1995 without a club")
	assert.Equal(t, 2, result.NoMatch, "unknown name and blank name")
	assert.Equal(t, 1, result.Malformed)
	assert.Equal(t, 2, result.Matched())
	assert.Equal(t, 5, result.Written)
	assert.Equal(t, int64(3), result.CountsRefreshed)
	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.Errors, 1)

	require.Len(t, store.written, 5)
	assert.True(t, store.replaceAll)
	assert.Equal(t, []string{award.CountColumn}, store.refreshed)
	for _, rec := range store.written {
		assert.Equal(t, result.RunID, rec.RunID)
		assert.Equal(t, award.Source, rec.Source, "missing source falls back to the award default")
	}
	require.NotNil(t, store.written[1].PlayerID)
	assert.Equal(t, "JohnSmith1", *store.written[1].PlayerID)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	store := registry()
	res := buildResolver(t, store)

	result, err := Run(context.Background(), store, res, config.AwardRegistry["rising_star"], mentions(),
		Options{DryRun: true}, discard)
	require.NoError(t, err)
	assert.Nil(t, store.written)
	assert.Empty(t, store.refreshed)
	assert.Zero(t, result.Written)
	assert.Len(t, result.Records, 5)
}

func TestRun_UndecodableRowIsClassified(t *testing.T) {
	store := registry()
	res := buildResolver(t, store)
	feed := `{"raw_name": "Nat Fyfe", "year": 2015}
{"raw_name": 42, "year": 2015}
{"raw_name": "Nobody Atall", "year": 2000}
`
	ms, err := provider.ReadMentions(strings.NewReader(feed), "")
	require.NoError(t, err)

	result, err := Run(context.Background(), store, res, config.AwardRegistry["all_australian"], ms,
		Options{}, discard)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Exact)
	assert.Equal(t, 2, result.NoMatch)
	assert.Equal(t, 1, result.Malformed)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "malformed mention 2")
	assert.Contains(t, result.Errors[0], "raw_name")

	require.Len(t, store.written, 3, "the bad row is stored, not dropped")
	assert.True(t, store.written[1].Malformed)
	assert.Equal(t, identity.QualityNoMatch, store.written[1].Quality)
}

func TestRun_WriteFailure(t *testing.T) {
	store := registry()
	store.writeErr = fmt.Errorf("connection reset")
	res := buildResolver(t, store)

	result, err := Run(context.Background(), store, res, config.AwardRegistry["rising_star"], mentions(),
		Options{RefreshCounts: true}, discard)
	assert.ErrorContains(t, err, "connection reset")
	assert.Equal(t, 5, result.Total)
	assert.Empty(t, store.refreshed)
}

func TestRun_Idempotent(t *testing.T) {
	store := registry()
	res := buildResolver(t, store)
	award := config.AwardRegistry["wooden_spoon"]

	_, err := Run(context.Background(), store, res, award, mentions(), Options{}, discard)
	require.NoError(t, err)
	first := store.written

	_, err = Run(context.Background(), store, res, award, mentions(), Options{Workers: 4}, discard)
	require.NoError(t, err)

	require.Len(t, store.written, len(first))
	for i := range first {
		a, b := first[i], store.written[i]
		a.RunID, b.RunID = "", ""
		assert.Equal(t, a, b)
	}
}

func TestRunResult_Summary(t *testing.T) {
	var r RunResult
	r.Record(identity.ResolutionRecord{Quality: identity.QualityExact})
	r.Record(identity.ResolutionRecord{Quality: identity.QualitySpan})
	r.Record(identity.ResolutionRecord{Quality: identity.QualityNoMatch, Malformed: true})
	r.AddErrorf("bad row %d", 3)

	assert.Equal(t, 1, r.Count(identity.QualitySpan))
	assert.Equal(t, 2, r.Matched())
	assert.Equal(t,
		"total=3 exact=1 club_year=0 span=1 ambiguous=0 no_match=1 malformed=1 written=0 errors=1",
		r.Summary())
}
