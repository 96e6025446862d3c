package sqlitedb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alexjvillani/afl-assistant/internal/awards"
	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/identity"
	"github.com/alexjvillani/afl-assistant/internal/provider"
)

// LoadPlayers reads every registry player in table order.
func (s *Store) LoadPlayers(ctx context.Context) ([]identity.PlayerRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, name, first_year, last_year FROM `+playersTable+` ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	var players []identity.PlayerRecord
	for rows.Next() {
		var (
			id          string
			name        sql.NullString
			first, last sql.NullInt64
		)
		if err := rows.Scan(&id, &name, &first, &last); err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, identity.PlayerRecord{
			ID:        id,
			Name:      name.String,
			FirstYear: nullableInt(first),
			LastYear:  nullableInt(last),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

// LoadSeasons reads every (player, year, team) registration.
func (s *Store) LoadSeasons(ctx context.Context) ([]identity.SeasonRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player_id, year, team FROM `+seasonsTable+` ORDER BY player_id, year, team`)
	if err != nil {
		return nil, fmt.Errorf("query seasons: %w", err)
	}
	defer rows.Close()

	var seasons []identity.SeasonRecord
	for rows.Next() {
		var rec identity.SeasonRecord
		if err := rows.Scan(&rec.PlayerID, &rec.Year, &rec.Club); err != nil {
			return nil, fmt.Errorf("scan season: %w", err)
		}
		seasons = append(seasons, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate seasons: %w", err)
	}
	return seasons, nil
}

// ReplaceResolutions writes records into the award's table in one
// transaction, replacing rows that share (source, year, club, raw_name).
// replaceAll first clears every row of the records' sources.
func (s *Store) ReplaceResolutions(ctx context.Context, award config.AwardConfig, records []identity.ResolutionRecord, replaceAll bool) (int, error) {
	table := quote(award.Table)
	err := s.withLock(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin: %w", err)
		}
		defer tx.Rollback()

		if replaceAll {
			for _, src := range sources(records) {
				if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE source = ?`, src); err != nil {
					return fmt.Errorf("clear source %q: %w", src, err)
				}
			}
		} else {
			del, err := tx.PrepareContext(ctx, `
				DELETE FROM `+table+`
				WHERE source = ? AND year IS ? AND club IS ? AND raw_name = ?`)
			if err != nil {
				return fmt.Errorf("prepare delete: %w", err)
			}
			defer del.Close()
			for _, rec := range records {
				if _, err := del.ExecContext(ctx, rec.Source, intArg(rec.Year), strArg(rec.Club), rec.RawName); err != nil {
					return fmt.Errorf("delete %q: %w", rec.RawName, err)
				}
			}
		}

		ins, err := tx.PrepareContext(ctx, `
			INSERT INTO `+table+` (
				source, year, club, raw_name, name_key, player_id,
				match_quality, candidates, malformed,
				raw_draft_pick, draft_pick_num, extra, run_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer ins.Close()
		for _, rec := range records {
			rawPick, pickNum := provider.DraftPick(rec.Extra)
			extra, _ := json.Marshal(nonNilMap(rec.Extra))
			if _, err := ins.ExecContext(ctx,
				rec.Source, intArg(rec.Year), strArg(rec.Club), rec.RawName, string(rec.Key), strArg(rec.PlayerID),
				string(rec.Quality), rec.Candidates, rec.Malformed,
				strArg(rawPick), intArg(pickNum), string(extra), nullableString(rec.RunID),
			); err != nil {
				return fmt.Errorf("insert %q: %w", rec.RawName, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// CountAwards returns how many rows of each award table point at playerID.
func (s *Store) CountAwards(ctx context.Context, playerID string, list []config.AwardConfig) (map[string]int, error) {
	counts := make(map[string]int, len(list))
	for _, award := range list {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM `+quote(award.Table)+` WHERE player_id = ?`, playerID).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", award.ID, err)
		}
		counts[award.ID] = n
	}
	return counts, nil
}

// RefreshAwardCounts recomputes the award's count column on every player.
func (s *Store) RefreshAwardCounts(ctx context.Context, award config.AwardConfig) (int64, error) {
	var affected int64
	err := s.withLock(func() error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE `+playersTable+` SET `+quote(award.CountColumn)+` = (
				SELECT COUNT(*) FROM `+quote(award.Table)+` a
				WHERE a.player_id = `+playersTable+`.player_id
			)`)
		if err != nil {
			return fmt.Errorf("refresh %s: %w", award.CountColumn, err)
		}
		affected, err = res.RowsAffected()
		return err
	})
	return affected, err
}

// ListResolutions returns stored rows of an award table, optionally only
// those with one match quality.
func (s *Store) ListResolutions(ctx context.Context, award config.AwardConfig, f awards.ListFilter) ([]identity.ResolutionRecord, error) {
	query := `
		SELECT source, year, club, raw_name, name_key, player_id,
		       match_quality, candidates, malformed, extra, run_id
		FROM ` + quote(award.Table) + `
		WHERE (? = '' OR match_quality = ?)
		ORDER BY year IS NULL, year, raw_name`
	args := []any{string(f.Quality), string(f.Quality)}
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", award.Table, err)
	}
	defer rows.Close()

	var records []identity.ResolutionRecord
	for rows.Next() {
		rec, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", award.Table, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", award.Table, err)
	}
	return records, nil
}

func scanResolution(scanner interface{ Scan(dest ...any) error }) (identity.ResolutionRecord, error) {
	var (
		rec      identity.ResolutionRecord
		year     sql.NullInt64
		club     sql.NullString
		key      sql.NullString
		playerID sql.NullString
		quality  string
		extra    sql.NullString
		runID    sql.NullString
	)
	if err := scanner.Scan(&rec.Source, &year, &club, &rec.RawName, &key, &playerID,
		&quality, &rec.Candidates, &rec.Malformed, &extra, &runID); err != nil {
		return rec, err
	}
	rec.Year = nullableInt(year)
	if club.Valid {
		rec.Club = &club.String
	}
	if playerID.Valid {
		rec.PlayerID = &playerID.String
	}
	rec.Key = identity.Key(key.String)
	rec.Quality = identity.MatchQuality(quality)
	rec.RunID = runID.String
	if extra.Valid && extra.String != "" {
		if err := json.Unmarshal([]byte(extra.String), &rec.Extra); err != nil {
			return rec, fmt.Errorf("decode extra: %w", err)
		}
		if len(rec.Extra) == 0 {
			rec.Extra = nil
		}
	}
	return rec, nil
}

// ---- helpers ----

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

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// intArg and strArg unwrap optional values into driver-friendly arguments.
func intArg(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func strArg(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

var _ awards.Store = (*Store)(nil)
