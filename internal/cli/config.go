package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/prompt-dispatch/internal/config"
)

// NewConfigCmd creates the 'config' command group for reading and editing
// the config file.
func NewConfigCmd(g *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the configuration file",
		Long: `Show or edit ~/.prompt-dispatch.json (or the file given by --config).

Every write keeps the previous file next to it with a .bak suffix.`,
	}

	cmd.AddCommand(newConfigPathCmd(g))
	cmd.AddCommand(newConfigShowCmd(g))
	cmd.AddCommand(newConfigInitCmd(g))
	cmd.AddCommand(newConfigSetCmd(g))

	return cmd
}

func newConfigPathCmd(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ResolvePath(g.ConfigPath)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func newConfigShowCmd(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration in effect: the file, defaults for missing values,
and .env / PROMPT_DISPATCH_* overrides.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrCreate(g.ConfigPath)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
}

func newConfigInitCmd(g *GlobalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Example: `  prompt-dispatch config init
  prompt-dispatch config init --force   # reset, keeping the old file as .bak`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ResolvePath(g.ConfigPath)
			if err != nil {
				return err
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.Save(config.NewConfig(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote default config to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func newConfigSetCmd(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one setting",
		Long: `Change one setting and save the file. The previous file is kept as .bak.

Keys: ` + strings.Join(config.Keys(), ", "),
		Example: `  prompt-dispatch config set similarityThreshold 0.3
  prompt-dispatch config set embedder.provider openai
  prompt-dispatch config set persistSessions true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ResolvePath(g.ConfigPath)
			if err != nil {
				return err
			}

			// File values only; env overrides must not be persisted.
			cfg, err := config.LoadFrom(path)
			var notFound *config.ConfigNotFoundError
			if errors.As(err, &notFound) {
				cfg = config.NewConfig()
			} else if err != nil {
				return err
			}

			if err := config.Set(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s = %s (saved to %s)\n", args[0], args[1], path)
			return nil
		},
	}
}
