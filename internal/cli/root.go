package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/khanglvm/prompt-dispatch/internal/version"
)

// GlobalOptions are the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
}

// AddFlags registers the persistent flags on cmd.
func (g *GlobalOptions) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", "", "Config file (default ~/.prompt-dispatch.json)")
	cmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
}

// appOptions builds App options that log to w.
func (g *GlobalOptions) appOptions(w io.Writer) Options {
	return Options{
		ConfigPath: g.ConfigPath,
		LogLevel:   g.LogLevel,
		LogWriter:  w,
	}
}

// NewRootCmd creates the prompt-dispatch command tree.
func NewRootCmd() *cobra.Command {
	g := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "prompt-dispatch",
		Short: "Dispatch natural-language prompts to automation functions",
		Long: `prompt-dispatch resolves a natural-language prompt to the best-matching
automation function by embedding similarity, runs it, and returns a script
that invokes the same function.

Functions:
  • open_chrome, open_calculator, open_notepad
  • get_cpu_usage, get_ram_usage
  • list_files

Each session keeps the prompts it has received in order.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	g.AddFlags(rootCmd)

	rootCmd.AddCommand(NewServeCmd(g))
	rootCmd.AddCommand(NewMCPCmd(g))
	rootCmd.AddCommand(NewFunctionsCmd(g))
	rootCmd.AddCommand(NewResolveCmd(g))
	rootCmd.AddCommand(NewIndexCmd(g))
	rootCmd.AddCommand(NewBenchmarkCmd(g))
	rootCmd.AddCommand(NewStatsCmd(g))
	rootCmd.AddCommand(NewConfigCmd(g))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}
