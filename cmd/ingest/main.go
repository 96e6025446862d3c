// Command ingest is the AFL player identity resolution CLI.
//
// Usage:
//
//	afl-ingest resolve --award all_australian --feed aa.jsonl --replace
//	afl-ingest resolve --award rising_star --feed rs.json --dry-run --out -
//	afl-ingest check --name "Nat Fyfe" --year 2015 --club Fremantle
//	afl-ingest counts --award all_australian --award best_and_fairest
//	afl-ingest player NathanFyfe
//	afl-ingest awards
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alexjvillani/afl-assistant/internal/awards"
	"github.com/alexjvillani/afl-assistant/internal/config"
	"github.com/alexjvillani/afl-assistant/internal/identity"
	"github.com/alexjvillani/afl-assistant/internal/provider"
	"github.com/alexjvillani/afl-assistant/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "afl-ingest",
		Short:        "AFL player identity resolution CLI",
		SilenceUsage: true,
	}

	root.AddCommand(resolveCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(countsCmd())
	root.AddCommand(playerCmd())
	root.AddCommand(awardsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// registry flags
// --------------------------------------------------------------------------

// registryFlags select where the registry is read from: the configured store
// by default, or exported JSON feeds.
type registryFlags struct {
	playersFile string
	seasonsFile string
}

func (f *registryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.playersFile, "players-file", "", "Read registry players from a JSON feed instead of the store")
	cmd.Flags().StringVar(&f.seasonsFile, "seasons-file", "", "Read player seasons from a JSON feed (with --players-file)")
}

func (f *registryFlags) fromFiles() bool { return f.playersFile != "" }

func (f *registryFlags) registry(st awards.Store) awards.Registry {
	if f.fromFiles() {
		return provider.FileRegistry{PlayersPath: f.playersFile, SeasonsPath: f.seasonsFile, Logger: logger}
	}
	return st
}

// --------------------------------------------------------------------------
// resolve command
// --------------------------------------------------------------------------

func resolveCmd() *cobra.Command {
	var (
		awardID    string
		feed       string
		out        string
		replace    bool
		dryRun     bool
		skipCounts bool
		workers    int
		reg        registryFlags
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve an award mention feed against the registry and store the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			award, err := awards.Lookup(awardID)
			if err != nil {
				return err
			}
			if feed == "" {
				return fmt.Errorf("--feed is required")
			}
			needStore := !dryRun || !reg.fromFiles()

			return runIngest(needStore, func(ctx context.Context, cfg *config.Config, st awards.Store) error {
				mentions, err := readFeed(feed, award.Source)
				if err != nil {
					return err
				}
				logger.Info("Mention feed loaded", "feed", feed, "mentions", len(mentions))

				res, err := buildResolver(ctx, cfg, reg.registry(st))
				if err != nil {
					return err
				}

				if !cmd.Flags().Changed("workers") {
					workers = cfg.ResolveWorkers
				}
				result, err := awards.Run(ctx, st, res, award, mentions, awards.Options{
					Replace:       replace,
					DryRun:        dryRun,
					RefreshCounts: !skipCounts,
					Workers:       workers,
				}, logger)
				if err != nil {
					return err
				}

				if out != "" {
					if err := writeRecords(out, result.Records); err != nil {
						return err
					}
				}
				for _, e := range result.Errors {
					logger.Warn("run issue", "error", e)
				}
				fmt.Fprintln(os.Stderr, renderSummary(os.Stderr, result))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&awardID, "award", "", fmt.Sprintf("Award id (%s)", strings.Join(config.AwardIDs(), ", ")))
	cmd.Flags().StringVar(&feed, "feed", "", "Mention feed (JSON array or JSON Lines); - reads stdin")
	cmd.Flags().StringVar(&out, "out", "", "Also write resolutions as JSON Lines to this path; - writes stdout")
	cmd.Flags().BoolVar(&replace, "replace", false, "Delete every stored row of the feed's sources before writing")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve only; write nothing to the store")
	cmd.Flags().BoolVar(&skipCounts, "skip-counts", false, "Skip the players award count refresh")
	cmd.Flags().IntVar(&workers, "workers", 1, "Concurrent resolver workers (default RESOLVE_WORKERS)")
	reg.register(cmd)
	_ = cmd.MarkFlagRequired("award")
	return cmd
}

// --------------------------------------------------------------------------
// check command
// --------------------------------------------------------------------------

func checkCmd() *cobra.Command {
	var (
		name string
		year string
		club string
		reg  registryFlags
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Resolve a single name and show how the decision was reached",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("--name is required")
			}
			var yearPtr *int
			if year != "" {
				y, ok := provider.ExtractYear(year)
				if !ok {
					return fmt.Errorf("invalid --year %q", year)
				}
				yearPtr = &y
			}
			var clubPtr *string
			if strings.TrimSpace(club) != "" {
				clubPtr = &club
			}

			return runIngest(!reg.fromFiles(), func(ctx context.Context, cfg *config.Config, st awards.Store) error {
				res, err := buildResolver(ctx, cfg, reg.registry(st))
				if err != nil {
					return err
				}
				outcome := res.Resolve(name, yearPtr, clubPtr)

				fmt.Printf("key:      %s\n", res.Key(name))
				fmt.Printf("quality:  %s\n", outcome.Quality)
				if outcome.Quality.Resolved() {
					fmt.Printf("player:   %s\n", outcome.PlayerID)
				}
				if clubPtr != nil {
					if code, ok := res.ClubCode(club); ok {
						fmt.Printf("club:     %s\n", code)
					} else {
						fmt.Printf("club:     %q not recognised\n", club)
					}
				}

				cands := res.Candidates(name)
				if len(cands) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(cands))
				for _, p := range cands {
					clubs := "-"
					if yearPtr != nil {
						if cs := res.SeasonClubs(p.ID, *yearPtr); len(cs) > 0 {
							clubs = strings.Join(cs, ",")
						}
					}
					rows = append(rows, []string{p.ID, p.Name, yearOrDash(p.FirstYear), yearOrDash(p.LastYear), clubs})
				}
				fmt.Println(renderTable(os.Stdout,
					[]string{"Player", "Name", "First", "Last", "Clubs that year"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft}))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Raw player name as a source spells it")
	cmd.Flags().StringVar(&year, "year", "", "Season year hint")
	cmd.Flags().StringVar(&club, "club", "", "Club hint (display name or team code)")
	reg.register(cmd)
	return cmd
}

// --------------------------------------------------------------------------
// counts command
// --------------------------------------------------------------------------

func countsCmd() *cobra.Command {
	var awardIDs []string
	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Recompute per-player award count columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := awards.LookupAll(awardIDs)
			if err != nil {
				return err
			}
			return runIngest(true, func(ctx context.Context, cfg *config.Config, st awards.Store) error {
				rows := make([][]string, 0, len(list))
				for _, award := range list {
					start := time.Now()
					n, err := st.RefreshAwardCounts(ctx, award)
					if err != nil {
						return err
					}
					logger.Info("Refreshed award counts",
						"award", award.ID, "column", award.CountColumn, "players", n,
						"duration", time.Since(start).Round(time.Millisecond))
					rows = append(rows, []string{award.ID, award.CountColumn, strconv.FormatInt(n, 10)})
				}
				fmt.Println(renderTable(os.Stdout, []string{"Award", "Column", "Players"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&awardIDs, "award", nil, "Award ids to refresh (default all)")
	return cmd
}

// --------------------------------------------------------------------------
// player command
// --------------------------------------------------------------------------

func playerCmd() *cobra.Command {
	var awardIDs []string
	cmd := &cobra.Command{
		Use:   "player <player-id>",
		Short: "Show how many awards of each kind a player has",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := awards.LookupAll(awardIDs)
			if err != nil {
				return err
			}
			return runIngest(true, func(ctx context.Context, cfg *config.Config, st awards.Store) error {
				counts, err := st.CountAwards(ctx, args[0], list)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(list))
				total := 0
				for _, award := range list {
					n := counts[award.ID]
					total += n
					rows = append(rows, []string{award.Name, strconv.Itoa(n)})
				}
				rows = append(rows, []string{"Total", strconv.Itoa(total)})
				fmt.Println(renderTable(os.Stdout, []string{"Award", "Count"}, rows,
					[]columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&awardIDs, "award", nil, "Award ids to count (default all)")
	return cmd
}

// --------------------------------------------------------------------------
// awards command
// --------------------------------------------------------------------------

func awardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "awards",
		Short: "List the award registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(config.AwardRegistry))
			for _, id := range config.AwardIDs() {
				a := config.AwardRegistry[id]
				rows = append(rows, []string{a.ID, a.Name, a.Table, a.CountColumn, a.Source})
			}
			fmt.Println(renderTable(os.Stdout,
				[]string{"Award", "Name", "Table", "Count column", "Default source"}, rows, nil))
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runIngest handles config loading, store connection, and context
// cancellation. st is nil when needStore is false.
func runIngest(needStore bool, fn func(ctx context.Context, cfg *config.Config, st awards.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))

	var st awards.Store
	if needStore {
		s, closeStore, err := store.Open(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()
		st = s
	}

	return fn(ctx, cfg, st)
}

func buildResolver(ctx context.Context, cfg *config.Config, reg awards.Registry) (*identity.Resolver, error) {
	names, err := identity.LoadNameData(cfg.NameDataFile)
	if err != nil {
		return nil, fmt.Errorf("load name data: %w", err)
	}
	aliases, nicknames, clubs := names.Counts()
	logger.Info("Name data loaded",
		"version", names.Version(), "aliases", aliases, "nicknames", nicknames, "clubs", clubs,
		"overlay", cfg.NameDataFile)
	return awards.BuildResolver(ctx, reg, names, logger)
}

func readFeed(path, defaultSource string) ([]identity.RawMention, error) {
	if path == "-" {
		return provider.ReadMentions(os.Stdin, defaultSource)
	}
	return provider.ReadMentionsFile(path, defaultSource)
}

// writeRecords writes one JSON object per line.
func writeRecords(path string, records []identity.ResolutionRecord) error {
	var w io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func renderSummary(out io.Writer, r *awards.RunResult) string {
	rows := make([][]string, 0, len(identity.Qualities)+2)
	for _, q := range identity.Qualities {
		n := r.Count(q)
		rows = append(rows, []string{string(q), strconv.Itoa(n), percent(n, r.Total)})
	}
	rows = append(rows,
		[]string{"malformed", strconv.Itoa(r.Malformed), percent(r.Malformed, r.Total)},
		[]string{"total", strconv.Itoa(r.Total), ""},
	)
	return renderTable(out, []string{"Match quality", "Rows", "Share"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight})
}

func percent(n, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(n)*100/float64(total))
}

func yearOrDash(y *int) string {
	if y == nil {
		return "-"
	}
	return strconv.Itoa(*y)
}
