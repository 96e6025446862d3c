package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexjvillani/afl-assistant/internal/awards"
	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/identity"
)

func intp(v int) *int       { return &v }
func strp(s string) *string { return &s }

func sampleRecords() []identity.ResolutionRecord {
	return []identity.ResolutionRecord{
		{
			RunID: "run-1", Source: "draftguru", Year: intp(1995), Club: strp("Fremantle"),
			RawName: "John Smith", Key: "john smith", PlayerID: strp("SmithJohn1"),
			Quality: identity.QualityClubYear, Candidates: 2,
			Extra: map[string]string{"draft_pick": "#12 (1989 National)"},
		},
		{
			Source: "draftguru", RawName: "", Quality: identity.QualityNoMatch, Malformed: true,
		},
	}
}

func TestReplaceBatch_DeletesByKeyThenInserts(t *testing.T) {
	award := config.AwardRegistry["all_australian"]
	batch, err := replaceBatch(award, sampleRecords(), false)
	require.NoError(t, err)
	require.Equal(t, 4, batch.Len())

	q := batch.QueuedQueries
	for _, del := range q[:2] {
		assert.True(t, strings.HasPrefix(strings.TrimSpace(del.SQL), `DELETE FROM "all_australian_selections"`), del.SQL)
		assert.Contains(t, del.SQL, "year IS NOT DISTINCT FROM $2")
		assert.Contains(t, del.SQL, "club IS NOT DISTINCT FROM $3")
	}
	assert.Equal(t, []any{"draftguru", intp(1995), strp("Fremantle"), "John Smith"}, q[0].Arguments)
	assert.Equal(t, []any{"draftguru", (*int)(nil), (*string)(nil), ""}, q[1].Arguments, "null year and club match nulls")

	for _, ins := range q[2:] {
		assert.True(t, strings.HasPrefix(strings.TrimSpace(ins.SQL), `INSERT INTO "all_australian_selections"`), ins.SQL)
		require.Len(t, ins.Arguments, 13)
	}

	first := q[2].Arguments
	assert.Equal(t, "john smith", first[4])
	assert.Equal(t, strp("SmithJohn1"), first[5])
	assert.Equal(t, "club_year", first[6])
	assert.Equal(t, strp("#12 (1989 National)"), first[9])
	assert.Equal(t, intp(12), first[10])
	assert.JSONEq(t, `{"draft_pick":"#12 (1989 National)"}`, string(first[11].([]byte)))
	assert.Equal(t, "run-1", first[12])

	second := q[3].Arguments
	assert.Equal(t, true, second[8])
	assert.Nil(t, second[9])
	assert.Nil(t, second[10])
	assert.JSONEq(t, `{}`, string(second[11].([]byte)), "extra is never SQL null")
	assert.Nil(t, second[12], "empty run id is stored as null")
}

func TestReplaceBatch_ReplaceAllDeletesSources(t *testing.T) {
	records := append(sampleRecords(), identity.ResolutionRecord{Source: "wikipedia", RawName: "Nat Fyfe"})
	batch, err := replaceBatch(config.AwardRegistry["rising_star"], records, true)
	require.NoError(t, err)
	require.Equal(t, 2+len(records), batch.Len())

	q := batch.QueuedQueries
	assert.Contains(t, q[0].SQL, "WHERE source = $1")
	assert.NotContains(t, q[0].SQL, "raw_name")
	assert.Equal(t, []any{"draftguru"}, q[0].Arguments)
	assert.Equal(t, []any{"wikipedia"}, q[1].Arguments)
}

func TestListQuery(t *testing.T) {
	award := config.AwardRegistry["all_australian"]

	sql, args := listQuery(award, awards.ListFilter{})
	assert.Contains(t, sql, `FROM "all_australian_selections"`)
	assert.Contains(t, sql, "($1 = '' OR match_quality = $1)")
	assert.Contains(t, sql, "ORDER BY year NULLS LAST, raw_name")
	assert.NotContains(t, sql, "LIMIT")
	assert.Equal(t, []any{""}, args)

	sql, args = listQuery(award, awards.ListFilter{Quality: identity.QualityAmbiguous, Limit: 50})
	assert.True(t, strings.HasSuffix(sql, "LIMIT $2"))
	assert.Equal(t, []any{"ambiguous", 50}, args)
}

func TestSources(t *testing.T) {
	records := []identity.ResolutionRecord{
		{Source: "draftguru"}, {Source: "wikipedia"}, {Source: "draftguru"},
	}
	assert.Equal(t, []string{"draftguru", "wikipedia"}, sources(records))
	assert.Nil(t, sources(nil))
}

func TestNilEmpty(t *testing.T) {
	assert.Nil(t, nilEmpty(""))
	assert.Equal(t, "run-1", nilEmpty("run-1"))
}
