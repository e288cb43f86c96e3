package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/khanglvm/prompt-dispatch/internal/version"
)

// NewVersionCmd creates the 'version' command
func NewVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the current version, commit hash, and build date.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()

			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			fmt.Fprintf(out, "Version:  %s\n", info.Version)
			fmt.Fprintf(out, "Commit:   %s\n", info.Commit)
			fmt.Fprintf(out, "Built:    %s\n", info.Date)
			fmt.Fprintf(out, "Go:       %s %s\n", info.GoVersion, info.Platform)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}
