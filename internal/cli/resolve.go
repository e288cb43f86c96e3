package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/prompt-dispatch/internal/search"
)

type resolveOutput struct {
	Prompt string `json:"prompt"`
	search.Match
	Threshold float64 `json:"threshold"`
}

// NewResolveCmd creates the 'resolve' command that shows which function a
// prompt maps to without running it.
func NewResolveCmd(g *GlobalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "resolve <prompt>",
		Short: "Show which function a prompt resolves to",
		Long: `Resolve a prompt against the embedding index without executing anything.

Prints the matched function, its similarity score and the method used
("semantic", or "bm25" when the embedder is unavailable). Prompts below the
similarity threshold resolve to "none".`,
		Example: `  prompt-dispatch resolve "open the browser"
  prompt-dispatch resolve how busy is the processor --json`,
		Args: cobra.MinimumNArgs(1),
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

			prompt := strings.Join(args, " ")
			match, err := app.Index.Resolve(ctx, prompt)
			if err != nil {
				return fmt.Errorf("failed to resolve prompt: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(resolveOutput{
					Prompt:    prompt,
					Match:     match,
					Threshold: app.Index.Threshold(),
				})
			}

			fmt.Fprintf(out, "Prompt:    %s\n", prompt)
			fmt.Fprintf(out, "Function:  %s\n", match.Function)
			fmt.Fprintf(out, "Score:     %.3f (threshold %.2f)\n", match.Score, app.Index.Threshold())
			fmt.Fprintf(out, "Method:    %s\n", match.Method)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}
