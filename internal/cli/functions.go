package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/prompt-dispatch/internal/registry"
)

// functionInfo is the JSON form of a registry entry.
type functionInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Examples    []string `json:"examples,omitempty"`
	Params      []string `json:"params,omitempty"`
}

// NewFunctionsCmd creates the 'functions' command listing registered functions.
func NewFunctionsCmd(g *GlobalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "functions",
		Aliases: []string{"ls"},
		Short:   "List the functions prompts can dispatch to",
		Example: `  prompt-dispatch functions
  prompt-dispatch functions --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(g.appOptions(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer app.Close()

			return printFunctions(cmd.OutOrStdout(), app.Registry.Entries(), jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func printFunctions(w io.Writer, entries []registry.Entry, jsonOutput bool) error {
	if jsonOutput {
		infos := make([]functionInfo, 0, len(entries))
		for _, e := range entries {
			infos = append(infos, functionInfo{
				Name:        string(e.ID),
				Description: e.Description,
				Examples:    e.Examples,
				Params:      e.Params,
			})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	fmt.Fprintf(w, "Registered functions (%d):\n\n", len(entries))
	for _, e := range entries {
		fmt.Fprintf(w, "  %s\n", e.ID)
		fmt.Fprintf(w, "    %s\n", e.Description)
		if len(e.Params) > 0 {
			fmt.Fprintf(w, "    Params:   %s\n", strings.Join(e.Params, ", "))
		}
		if len(e.Examples) > 0 {
			fmt.Fprintf(w, "    Examples: %s\n", strings.Join(e.Examples, " | "))
		}
		fmt.Fprintln(w)
	}
	return nil
}
