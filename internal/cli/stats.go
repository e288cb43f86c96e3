package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/prompt-dispatch/internal/learning"
)

// NewStatsCmd creates the 'stats' command summarizing recorded dispatches.
func NewStatsCmd(g *GlobalOptions) *cobra.Command {
	var since time.Duration
	var prune time.Duration
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize recorded dispatches per function",
		Long: `Show how often each function was dispatched, how often it failed and its
mean similarity score, from the dispatch history in the database.

Dispatches are recorded when trackDispatches is enabled and storage is on.`,
		Example: `  prompt-dispatch stats
  prompt-dispatch stats --since 24h
  prompt-dispatch stats --prune 720h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(g.appOptions(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer app.Close()

			if !app.Storage.Enabled() {
				return errors.New("dispatch history needs storage; set databasePath")
			}

			if prune > 0 {
				if err := app.Storage.Cleanup(prune); err != nil {
					return err
				}
				app.Logger.Info("pruned dispatch history", "olderThan", prune)
			}

			entries := app.Registry.Entries()
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, string(e.ID))
			}

			now := time.Now()
			report, err := learning.Report(app.Storage, names, now.Add(-since), now)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			fmt.Fprintf(out, "Dispatches in the last %s:\n\n", since)
			fmt.Fprintf(out, "  %-18s %10s %9s %10s %8s\n", "FUNCTION", "DISPATCHES", "FAILURES", "MEAN SCORE", "RECENCY")
			for _, s := range report {
				fmt.Fprintf(out, "  %-18s %10d %9d %10.3f %8.2f\n",
					s.Function, s.Dispatches, s.Failures, s.MeanScore, s.Recency)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 7*24*time.Hour, "Only count dispatches newer than this")
	cmd.Flags().DurationVar(&prune, "prune", 0, "Delete dispatch records older than this first")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}
