package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/khanglvm/prompt-dispatch/internal/api"
)

// NewServeCmd creates the 'serve' command that runs the HTTP API.
func NewServeCmd(g *GlobalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP dispatch API",
		Long: `Start the HTTP API.

Routes:
  POST /execute           {"prompt", "session_id", "params"}
  POST /execute_multiple  {"prompts", "session_id"}
  GET  /functions
  GET  /sessions/:id
  GET  /healthz

The server shuts down gracefully on SIGINT or SIGTERM.`,
		Example: `  prompt-dispatch serve
  prompt-dispatch serve --addr :8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, g, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides listenAddr)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, g *GlobalOptions, addr string) error {
	app, err := NewApp(g.appOptions(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.BuildIndex(ctx); err != nil {
		return err
	}

	if addr == "" {
		addr = app.Config.ListenAddr
	}
	app.Logger.Info("http api listening", "addr", addr)

	return api.NewServer(app.Service, app.Registry, app.Logger).Run(ctx, addr)
}
