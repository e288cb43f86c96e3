package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Options configures an Index.
type Options struct {
	// Threshold is the minimum cosine similarity for a semantic match.
	Threshold float64

	// Logger receives index diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

type indexedVector struct {
	name   string
	vector []float32
}

// Index resolves prompts to function names.
type Index struct {
	model     *EmbeddingModel
	keyword   *Indexer
	threshold float64
	logger    *slog.Logger

	mu      sync.RWMutex
	entries []indexedVector
}

// NewIndex creates an empty index. keyword may be nil, which disables the
// BM25 fallback.
func NewIndex(model *EmbeddingModel, keyword *Indexer, opts Options) *Index {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		model:     model,
		keyword:   keyword,
		threshold: opts.Threshold,
		logger:    logger,
	}
}

// Build embeds every document and replaces the index contents. Document
// order is kept; it decides ties in Resolve. Stored embeddings for names not
// in docs are pruned.
func (x *Index) Build(ctx context.Context, docs []Document) error {
	vectors, err := x.model.EmbedDocuments(ctx, docs)
	if err != nil {
		return err
	}

	entries := make([]indexedVector, len(docs))
	names := make([]string, len(docs))
	for i, doc := range docs {
		entries[i] = indexedVector{name: doc.Name, vector: vectors[i]}
		names[i] = doc.Name
	}

	if x.keyword != nil {
		if err := x.keyword.IndexDocuments(docs); err != nil {
			return fmt.Errorf("failed to build keyword index: %w", err)
		}
	}

	if x.model.storage != nil {
		n, err := x.model.storage.DeleteEmbeddingsExcept(names)
		if err != nil {
			x.logger.Warn("failed to prune stale embeddings", "error", err)
		} else if n > 0 {
			x.logger.Info("pruned stale embeddings", "count", n)
		}
	}

	x.mu.Lock()
	x.entries = entries
	x.mu.Unlock()

	x.logger.Info("function index built", "functions", len(entries), "model", x.model.Model())
	return nil
}

// Len returns the number of indexed functions.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}

// Threshold returns the similarity threshold.
func (x *Index) Threshold() float64 {
	return x.threshold
}

// Resolve returns the function whose description is most similar to the
// prompt. Function is NoMatch when the index is empty or the best score is
// below the threshold. An error is returned only when the prompt cannot be
// embedded and no keyword fallback is available.
func (x *Index) Resolve(ctx context.Context, prompt string) (Match, error) {
	x.mu.RLock()
	entries := x.entries
	x.mu.RUnlock()

	if len(entries) == 0 {
		return Match{Function: NoMatch, Method: MethodSemantic}, nil
	}

	vec, err := x.model.Embed(ctx, prompt)
	if err != nil {
		// A caller that gave up is not an embedder outage.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Match{}, err
		}
		if x.keyword == nil {
			return Match{}, fmt.Errorf("failed to embed prompt: %w", err)
		}
		x.logger.Warn("embedding failed, falling back to keyword search", "error", err)
		return x.resolveKeyword(prompt)
	}

	best := -1
	bestScore := 0.0
	for i, e := range entries {
		score := cosineSimilarity(vec, e.vector)
		if best < 0 || score > bestScore {
			best = i
			bestScore = score
		}
	}

	if bestScore < x.threshold {
		x.logger.Debug("no function above threshold",
			"closest", entries[best].name, "score", bestScore, "threshold", x.threshold)
		return Match{Function: NoMatch, Score: bestScore, Method: MethodSemantic}, nil
	}

	return Match{Function: entries[best].name, Score: bestScore, Method: MethodSemantic}, nil
}

func (x *Index) resolveKeyword(prompt string) (Match, error) {
	results, err := x.keyword.SearchBM25(prompt, 1)
	if err != nil {
		return Match{}, fmt.Errorf("keyword fallback failed: %w", err)
	}
	if len(results) == 0 {
		return Match{Function: NoMatch, Method: MethodBM25}, nil
	}
	return Match{Function: results[0].Name, Score: results[0].Score, Method: MethodBM25}, nil
}
