package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/khanglvm/prompt-dispatch/internal/mcp"
	"github.com/khanglvm/prompt-dispatch/internal/version"
)

// NewMCPCmd creates the 'mcp' command that serves dispatch over stdio.
func NewMCPCmd(g *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server (stdio transport)",
		Long: `Start the MCP server using stdio transport.

Tools:
  • dispatch_execute   - Resolve and run the function for a prompt
  • dispatch_functions - List the registered functions
  • dispatch_history   - Show a session's prompt history

Logs go to stderr; stdout carries JSON-RPC only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := NewApp(g.appOptions(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.BuildIndex(ctx); err != nil {
				return err
			}

			server := mcp.NewServer(app.Service, app.Registry, version.Version, cmd.OutOrStdout(), app.Logger)
			return server.Run(ctx, cmd.InOrStdin())
		},
	}

	return cmd
}
