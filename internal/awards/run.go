package awards

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/identity"
	"github.com/alexjvillani/afl-assistant/internal/provider"
)

const progressEvery = 500

// Options controls a resolution run.
type Options struct {
	Replace       bool // delete every existing row of the feed's sources first
	DryRun        bool // resolve only, write nothing
	RefreshCounts bool // recompute the players count column afterwards
	Workers       int
}

// BuildResolver loads the registry and freezes both indexes.
func BuildResolver(ctx context.Context, reg Registry, names *identity.NameData, logger *slog.Logger) (*identity.Resolver, error) {
	start := time.Now()

	players, err := reg.LoadPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	ib := identity.NewIndexBuilder(names)
	for _, p := range players {
		ib.Add(p)
	}
	index := ib.Freeze()
	logger.Info("Candidate index built",
		"players", index.Players(), "keys", index.Len(), "shared_keys", index.SharedKeys())

	seasons, err := reg.LoadSeasons(ctx)
	if err != nil {
		return nil, fmt.Errorf("load seasons: %w", err)
	}
	sb := identity.NewSeasonBuilder()
	for _, s := range seasons {
		sb.Add(s)
	}
	seasonIndex := sb.Freeze()
	logger.Info("Season index built",
		"seasons", len(seasons), "entries", seasonIndex.Len(),
		"duration", time.Since(start).Round(time.Millisecond))

	return identity.NewResolver(names, index, seasonIndex), nil
}

// ResolveAll resolves mentions with a bounded worker pool. The output slice
// is index-aligned with mentions regardless of worker count.
func ResolveAll(ctx context.Context, res *identity.Resolver, mentions []identity.RawMention, workers int, logger *slog.Logger) ([]identity.ResolutionRecord, error) {
	out := make([]identity.ResolutionRecord, len(mentions))
	if len(mentions) == 0 {
		return out, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(mentions) {
		workers = len(mentions)
	}

	ch := make(chan int, len(mentions))
	for i := range mentions {
		ch <- i
	}
	close(ch)

	var done atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range ch {
				if ctx.Err() != nil {
					return
				}
				out[i] = res.ResolveMention(mentions[i])
				if n := done.Add(1); n%progressEvery == 0 {
					logger.Info("Resolve progress", "done", n, "total", len(mentions))
				}
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Run resolves one award feed and persists the outcome through w.
//
// Per-mention problems never abort the run; they are counted and logged.
// The returned error is non-nil only for cancellation or a failed write.
func Run(
	ctx context.Context,
	w Writer,
	res *identity.Resolver,
	award config.AwardConfig,
	mentions []identity.RawMention,
	opts Options,
	logger *slog.Logger,
) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{RunID: uuid.NewString(), Award: award.ID}
	logger = logger.With("award", award.ID, "run_id", result.RunID)

	logger.Info("Resolving award mentions",
		"mentions", len(mentions), "workers", opts.Workers,
		"replace", opts.Replace, "dry_run", opts.DryRun)

	logger.Info("Phase 1/3: Resolving mentions...")
	records, err := ResolveAll(ctx, res, mentions, opts.Workers, logger)
	if err != nil {
		return result, fmt.Errorf("resolve %s: %w", award.ID, err)
	}
	for i := range records {
		rec := &records[i]
		rec.RunID = result.RunID
		if rec.Source == "" {
			rec.Source = award.Source
		}
		result.Record(*rec)

		switch rec.Quality {
		case identity.QualityNoMatch:
			logger.Warn("No registry match",
				"raw_name", rec.RawName, "key", rec.Key, "year", yearAttr(rec.Year))
		case identity.QualityAmbiguous:
			logger.Warn("Ambiguous mention",
				"raw_name", rec.RawName, "key", rec.Key, "year", yearAttr(rec.Year),
				"candidates", rec.Candidates)
		}
		if rec.Malformed {
			if decodeErr := rec.Extra[provider.ExtraDecodeError]; decodeErr != "" {
				result.AddErrorf("malformed mention %d: %s", i+1, decodeErr)
			} else {
				result.AddErrorf("malformed mention %d: raw_name=%q year=%s", i+1, rec.RawName, yearAttr(rec.Year))
			}
		}
	}
	result.Records = records
	logger.Info("Resolution done",
		"matched", result.Matched(), "ambiguous", result.Ambiguous, "no_match", result.NoMatch)

	if opts.DryRun {
		result.Duration = time.Since(start)
		logger.Info("Dry run, nothing written", "summary", result.Summary())
		return result, nil
	}

	logger.Info("Phase 2/3: Writing resolutions...", "table", award.Table)
	written, err := w.ReplaceResolutions(ctx, award, records, opts.Replace)
	if err != nil {
		result.Duration = time.Since(start)
		return result, fmt.Errorf("write %s: %w", award.Table, err)
	}
	result.Written = written
	logger.Info("Resolutions written", "rows", written)

	if opts.RefreshCounts {
		logger.Info("Phase 3/3: Refreshing award counts...", "column", award.CountColumn)
		n, err := w.RefreshAwardCounts(ctx, award)
		if err != nil {
			result.AddErrorf("refresh %s: %v", award.CountColumn, err)
		} else {
			result.CountsRefreshed = n
		}
	} else {
		logger.Info("Phase 3/3: Skipped award count refresh")
	}

	result.Duration = time.Since(start)
	logger.Info("Award run complete",
		"duration", result.Duration.Round(time.Millisecond), "summary", result.Summary())
	return result, nil
}

func yearAttr(year *int) string {
	if year == nil {
		return "none"
	}
	return fmt.Sprint(*year)
}
