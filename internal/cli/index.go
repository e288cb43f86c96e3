package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// embeddingInfo describes one stored embedding without its vector.
type embeddingInfo struct {
	Name       string `json:"name"`
	Dimensions int    `json:"dimensions"`
	Version    string `json:"version"`
	CreatedAt  string `json:"createdAt,omitempty"`
}

// NewIndexCmd creates the 'index' command that builds the embedding index and
// lists the stored embeddings.
func NewIndexCmd(g *GlobalOptions) *cobra.Command {
	var rebuild bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the embedding index and list stored embeddings",
		Long: `Embed every registered function and list the embeddings stored in the
database.

Stored embeddings are reused while the embedder model and the function
description are unchanged. --rebuild drops them and embeds from scratch.`,
		Example: `  prompt-dispatch index
  prompt-dispatch index --rebuild`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := NewApp(g.appOptions(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer app.Close()

			if rebuild {
				n, err := app.Storage.DeleteEmbeddingsExcept(nil)
				if err != nil {
					return err
				}
				app.Embeddings.ClearCache()
				app.Logger.Info("dropped stored embeddings", "count", n)
			}

			if err := app.BuildIndex(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !app.Storage.Enabled() {
				fmt.Fprintf(out, "Indexed %d functions with %s (storage disabled, nothing persisted)\n",
					app.Index.Len(), app.Embeddings.Model())
				return nil
			}

			stored, err := app.Storage.ListEmbeddings()
			if err != nil {
				return err
			}

			infos := make([]embeddingInfo, 0, len(stored))
			for _, e := range stored {
				info := embeddingInfo{Name: e.Name, Dimensions: len(e.Vector), Version: e.Version}
				if !e.CreatedAt.IsZero() {
					info.CreatedAt = e.CreatedAt.Format("2006-01-02 15:04:05")
				}
				infos = append(infos, info)
			}

			if jsonOutput {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			fmt.Fprintf(out, "Indexed %d functions with %s\n", app.Index.Len(), app.Embeddings.Model())
			fmt.Fprintf(out, "Stored embeddings in %s (%d):\n\n", app.Storage.Path(), len(infos))
			for _, info := range infos {
				fmt.Fprintf(out, "  %-18s %5d dims  %s\n", info.Name, info.Dimensions, info.Version)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Drop stored embeddings before indexing")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}
