package search

import "context"

// Embedder generates vector embeddings for text.
//
// Embed is batch-first: pass a slice with one element for a single text.
// The result has one vector per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model identifies the embedding model; cached vectors are keyed on it.
	Model() string
}
