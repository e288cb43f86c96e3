package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/prompt-dispatch/internal/benchmark"
)

// NewBenchmarkCmd creates the 'benchmark' command for retrieval accuracy and
// latency testing.
func NewBenchmarkCmd(g *GlobalOptions) *cobra.Command {
	var jsonOutput bool
	var repeat int

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Measure prompt resolution accuracy and latency",
		Long: `Resolve every function's description and sample prompts against the
embedding index and report how many land on the expected function.

Latency is sampled over --repeat passes; accuracy comes from the first pass.`,
		Example: `  # Run benchmark with current config
  prompt-dispatch benchmark

  # More latency samples, JSON output
  prompt-dispatch benchmark --repeat 20 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(g.appOptions(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if err := app.BuildIndex(ctx); err != nil {
				return err
			}

			cases := benchmark.CasesFromEntries(app.Registry.Entries())
			result, err := benchmark.RunBenchmark(ctx, app.Index, cases, benchmark.Options{
				Repeat:    repeat,
				Model:     app.Embeddings.Model(),
				Threshold: app.Index.Threshold(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Fprint(out, benchmark.FormatResult(result))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")
	cmd.Flags().IntVarP(&repeat, "repeat", "r", 5, "Passes over the cases for latency sampling")

	return cmd
}
