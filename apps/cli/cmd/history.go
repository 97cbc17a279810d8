package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/fitcheck/packages/core/config"
	"github.com/abdul-hamid-achik/fitcheck/packages/core/env"
	"github.com/abdul-hamid-achik/fitcheck/packages/history"
)

var (
	historyDBFlag      string
	historyLimitFlag   int
	historyJSONFlag    bool
	historyStatsFlag   bool
	historyBaseURLFlag string
	historyEnvFileFlag string
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List stored runs or show one run",
	Long: `List the most recent runs stored with --history, newest first, or show
every case of a single run.

Examples:
  fitcheck history --db sqlite://fitcheck.db
  fitcheck history --db sqlite://fitcheck.db --limit 5 --json
  fitcheck history --db sqlite://fitcheck.db 6f1c...
  fitcheck history --stats --base-url http://localhost:8001`,
	Args: cobra.MaximumNArgs(1),
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().StringVar(&historyDBFlag, "db", "", "History database: sqlite://path or postgres://... (env: FITCHECK_HISTORY)")
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Number of runs to list")
	historyCmd.Flags().BoolVar(&historyJSONFlag, "json", false, "Print JSON instead of a table")
	historyCmd.Flags().BoolVar(&historyStatsFlag, "stats", false, "Show pass statistics for a base URL")
	historyCmd.Flags().StringVar(&historyBaseURLFlag, "base-url", "", "Base URL for --stats (default: configured base URL)")
	historyCmd.Flags().StringVar(&historyEnvFileFlag, "env-file", "", "Path to .env file exported before settings are read")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	if historyEnvFileFlag != "" {
		if _, err := env.LoadAndExportDotEnv(historyEnvFileFlag); err != nil {
			return configError("%w", err)
		}
	}

	cfg, err := config.LoadConfig(env.String("FITCHECK_CONFIG", ""))
	if err != nil {
		return configError("%w", err)
	}

	connStr := historyDBFlag
	if connStr == "" {
		connStr = env.String("FITCHECK_HISTORY", cfg.History)
	}
	if connStr == "" {
		return configError("no history database: use --db, FITCHECK_HISTORY or the history config key")
	}

	repo, err := history.Open(connStr)
	if err != nil {
		return configError("%w", err)
	}
	defer repo.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case historyStatsFlag:
		baseURL := historyBaseURLFlag
		if baseURL == "" {
			baseURL = env.String("FITCHECK_BASE_URL", cfg.BaseURL)
		}
		stats, err := repo.Stats(ctx, baseURL)
		if err != nil {
			return failure(err)
		}
		if historyJSONFlag {
			return writeJSON(out, stats)
		}
		fmt.Fprintf(out, "%s\n", baseURL)
		fmt.Fprintf(out, "  runs:       %d\n", stats.TotalRuns)
		fmt.Fprintf(out, "  successful: %d (%.1f%%)\n", stats.SuccessfulRuns, stats.SuccessRate)
		fmt.Fprintf(out, "  aborted:    %d\n", stats.AbortedRuns)
		fmt.Fprintf(out, "  pass rate:  %.1f%% of cases on average\n", stats.AveragePassRate)
		return nil

	case len(args) == 1:
		rec, err := repo.Get(ctx, args[0])
		if errors.Is(err, history.ErrNotFound) {
			return configError("%w", err)
		}
		if err != nil {
			return failure(err)
		}
		if historyJSONFlag {
			return writeJSON(out, rec)
		}
		printRun(out, rec)
		return nil

	default:
		recs, err := repo.Recent(ctx, historyLimitFlag)
		if err != nil {
			return failure(err)
		}
		if historyJSONFlag {
			if recs == nil {
				recs = []history.Record{}
			}
			return writeJSON(out, recs)
		}
		printRuns(out, recs)
		return nil
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runStatus(rec *history.Record) string {
	switch {
	case rec.Aborted:
		return color.RedString("ABORTED")
	case rec.Failed() > 0:
		return color.YellowString("FAILED")
	default:
		return color.GreenString("PASSED")
	}
}

func printRuns(w io.Writer, recs []history.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tFINISHED\tPASSED\tSTATUS\tBASE URL")
	for i := range recs {
		rec := &recs[i]
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\t%s\n",
			rec.ID,
			rec.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Passed, rec.Run,
			runStatus(rec),
			rec.BaseURL,
		)
	}
	_ = tw.Flush()
}

func printRun(w io.Writer, rec *history.Record) {
	fmt.Fprintf(w, "Run %s against %s\n", rec.ID, rec.BaseURL)
	fmt.Fprintf(w, "Finished %s in %s\n", rec.FinishedAt.Local().Format("2006-01-02 15:04:05"), rec.FinishedAt.Sub(rec.StartedAt).Round(time.Millisecond))
	if rec.Aborted {
		fmt.Fprintf(w, "%s at %s\n", color.RedString("Aborted"), rec.AbortedStep)
	}
	fmt.Fprintln(w)

	for _, c := range rec.Cases {
		mark := color.GreenString("✓")
		if !c.Passed {
			mark = color.RedString("✗")
		}
		line := fmt.Sprintf("%s %s (%d, %.0fms)", mark, c.Name, c.StatusCode, c.DurationMs)
		if c.Detail != "" {
			line += ": " + c.Detail
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\nTest Results: %d/%d tests passed\n", rec.Passed, rec.Run)
}
