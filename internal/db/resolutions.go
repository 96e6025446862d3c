package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/alexjvillani/afl-assistant/internal/awards"
	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/identity"
	"github.com/alexjvillani/afl-assistant/internal/provider"
)

// ---- registry ----

// LoadPlayers reads every registry player, ordered by id.
func (p *Pool) LoadPlayers(ctx context.Context) ([]identity.PlayerRecord, error) {
	rows, err := p.Query(ctx, "load_players")
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	players, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (identity.PlayerRecord, error) {
		var rec identity.PlayerRecord
		var name *string
		err := row.Scan(&rec.ID, &name, &rec.FirstYear, &rec.LastYear)
		if name != nil {
			rec.Name = *name
		}
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan players: %w", err)
	}
	return players, nil
}

// LoadSeasons reads every (player, year, team) registration.
func (p *Pool) LoadSeasons(ctx context.Context) ([]identity.SeasonRecord, error) {
	rows, err := p.Query(ctx, "load_seasons")
	if err != nil {
		return nil, fmt.Errorf("query seasons: %w", err)
	}
	seasons, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (identity.SeasonRecord, error) {
		var rec identity.SeasonRecord
		err := row.Scan(&rec.PlayerID, &rec.Year, &rec.Club)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan seasons: %w", err)
	}
	return seasons, nil
}

// ---- writer ----

// ReplaceResolutions writes records into the award's table in one
// transaction. Rows sharing a record's (source, year, club, raw_name) are
// deleted before the inserts, so re-running the same feed leaves the same
// rows behind. replaceAll first clears every row of the records' sources.
func (p *Pool) ReplaceResolutions(ctx context.Context, award config.AwardConfig, records []identity.ResolutionRecord, replaceAll bool) (int, error) {
	batch, err := replaceBatch(award, records, replaceAll)
	if err != nil {
		return 0, err
	}

	tx, err := p.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, fmt.Errorf("%s statement %d: %w", award.Table, i+1, err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(records), nil
}

// CountAwards returns how many rows of each award table point at playerID.
func (p *Pool) CountAwards(ctx context.Context, playerID string, list []config.AwardConfig) (map[string]int, error) {
	counts := make(map[string]int, len(list))
	for _, award := range list {
		var n int
		err := p.QueryRow(ctx,
			`SELECT COUNT(*) FROM `+pgx.Identifier{award.Table}.Sanitize()+` WHERE player_id = $1`,
			playerID).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", award.ID, err)
		}
		counts[award.ID] = n
	}
	return counts, nil
}

// RefreshAwardCounts recomputes the award's count column on every player.
func (p *Pool) RefreshAwardCounts(ctx context.Context, award config.AwardConfig) (int64, error) {
	players := pgx.Identifier{config.PlayersTable}.Sanitize()
	tag, err := p.Exec(ctx, `
		UPDATE `+players+` SET `+pgx.Identifier{award.CountColumn}.Sanitize()+` = (
			SELECT COUNT(*) FROM `+pgx.Identifier{award.Table}.Sanitize()+` a
			WHERE a.player_id = `+players+`.player_id
		)`)
	if err != nil {
		return 0, fmt.Errorf("refresh %s: %w", award.CountColumn, err)
	}
	return tag.RowsAffected(), nil
}

// ListResolutions returns stored rows of an award table, optionally only
// those with one match quality.
func (p *Pool) ListResolutions(ctx context.Context, award config.AwardConfig, f awards.ListFilter) ([]identity.ResolutionRecord, error) {
	sql, args := listQuery(award, f)
	rows, err := p.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", award.Table, err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (identity.ResolutionRecord, error) {
		var (
			rec     identity.ResolutionRecord
			key     string
			quality string
			extra   []byte
			runID   *string
		)
		err := row.Scan(&rec.Source, &rec.Year, &rec.Club, &rec.RawName, &key, &rec.PlayerID,
			&quality, &rec.Candidates, &rec.Malformed, &extra, &runID)
		if err != nil {
			return rec, err
		}
		rec.Key = identity.Key(key)
		rec.Quality = identity.MatchQuality(quality)
		if runID != nil {
			rec.RunID = *runID
		}
		if len(extra) > 0 {
			if err := json.Unmarshal(extra, &rec.Extra); err != nil {
				return rec, fmt.Errorf("decode extra: %w", err)
			}
			if len(rec.Extra) == 0 {
				rec.Extra = nil
			}
		}
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", award.Table, err)
	}
	return records, nil
}

// ---- statements ----

// replaceBatch queues the deletes, then the inserts, of one ReplaceResolutions
// call. Every delete runs before any insert so two records sharing a key are
// both kept.
func replaceBatch(award config.AwardConfig, records []identity.ResolutionRecord, replaceAll bool) (*pgx.Batch, error) {
	table := pgx.Identifier{award.Table}.Sanitize()
	batch := &pgx.Batch{}
	if replaceAll {
		for _, src := range sources(records) {
			batch.Queue(`DELETE FROM `+table+` WHERE source = $1`, src)
		}
	} else {
		for _, rec := range records {
			batch.Queue(`
				DELETE FROM `+table+`
				WHERE source = $1
				  AND year IS NOT DISTINCT FROM $2
				  AND club IS NOT DISTINCT FROM $3
				  AND raw_name = $4`,
				rec.Source, rec.Year, rec.Club, rec.RawName)
		}
	}
	for _, rec := range records {
		rawPick, pickNum := provider.DraftPick(rec.Extra)
		extra, err := json.Marshal(nonNilMap(rec.Extra))
		if err != nil {
			return nil, fmt.Errorf("encode extra for %q: %w", rec.RawName, err)
		}
		batch.Queue(`
			INSERT INTO `+table+` (
				source, year, club, raw_name, name_key, player_id,
				match_quality, candidates, malformed,
				raw_draft_pick, draft_pick_num, extra, run_id
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			rec.Source, rec.Year, rec.Club, rec.RawName, string(rec.Key), rec.PlayerID,
			string(rec.Quality), rec.Candidates, rec.Malformed,
			rawPick, pickNum, extra, nilEmpty(rec.RunID),
		)
	}
	return batch, nil
}

// listQuery builds the ListResolutions select. An empty quality matches
// every row; a zero limit means no limit.
func listQuery(award config.AwardConfig, f awards.ListFilter) (string, []any) {
	sql := `
		SELECT source, year, club, raw_name, name_key, player_id,
		       match_quality, candidates, malformed, extra, run_id
		FROM ` + pgx.Identifier{award.Table}.Sanitize() + `
		WHERE ($1 = '' OR match_quality = $1)
		ORDER BY year NULLS LAST, raw_name`
	args := []any{string(f.Quality)}
	if f.Limit > 0 {
		sql += ` LIMIT $2`
		args = append(args, f.Limit)
	}
	return sql, args
}

// ---- helpers ----

// sources returns the distinct source tags in first-seen order.
func sources(records []identity.ResolutionRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range records {
		if !seen[rec.Source] {
			seen[rec.Source] = true
			out = append(out, rec.Source)
		}
	}
	return out
}

// nilEmpty converts empty strings to nil for nullable columns.
func nilEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nonNilMap ensures a nil map becomes an empty map for JSON marshaling.
func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

var _ awards.Store = (*Pool)(nil)
