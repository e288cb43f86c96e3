package search

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/khanglvm/prompt-dispatch/internal/storage"
)

// maxQueryCache bounds the number of cached prompt embeddings.
const maxQueryCache = 512

// EmbeddingModel wraps an Embedder with an in-memory prompt cache and a
// persistent cache of function embeddings.
type EmbeddingModel struct {
	embedder Embedder
	storage  storage.Storage
	logger   *slog.Logger

	mu    sync.RWMutex
	cache map[string][]float32
}

// NewEmbeddingModel creates a new embedding model wrapper. store may be nil.
func NewEmbeddingModel(embedder Embedder, store storage.Storage, logger *slog.Logger) *EmbeddingModel {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbeddingModel{
		embedder: embedder,
		storage:  store,
		logger:   logger,
		cache:    make(map[string][]float32),
	}
}

// Model returns the underlying embedder's model name.
func (e *EmbeddingModel) Model() string {
	return e.embedder.Model()
}

// Embed generates an embedding for a prompt, using the cache when possible.
func (e *EmbeddingModel) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	if vec, exists := e.cache[text]; exists {
		e.mu.RUnlock()
		return vec, nil
	}
	e.mu.RUnlock()

	vecs, err := e.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for 1 input", len(vecs))
	}

	e.mu.Lock()
	if len(e.cache) >= maxQueryCache {
		e.cache = make(map[string][]float32)
	}
	e.cache[text] = vecs[0]
	e.mu.Unlock()

	return vecs[0], nil
}

// EmbedDocuments returns one vector per document, in order. Stored vectors
// are reused when they were computed by the same model from the same text;
// the rest are embedded in a single batch and saved.
func (e *EmbeddingModel) EmbedDocuments(ctx context.Context, docs []Document) ([][]float32, error) {
	out := make([][]float32, len(docs))

	var missing []int
	for i, doc := range docs {
		if vec := e.GetEmbedding(doc.Name, e.version(doc.Text)); vec != nil {
			out[i] = vec
			continue
		}
		missing = append(missing, i)
	}

	if len(missing) == 0 {
		e.logger.Debug("all function embeddings served from cache", "count", len(docs))
		return out, nil
	}

	texts := make([]string, len(missing))
	for j, i := range missing {
		texts[j] = docs[i].Text
	}

	vecs, err := e.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed functions: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d inputs", len(vecs), len(texts))
	}

	for j, i := range missing {
		out[i] = vecs[j]
		e.SaveEmbedding(docs[i].Name, vecs[j], e.version(docs[i].Text))
	}

	e.logger.Debug("embedded functions", "computed", len(missing), "cached", len(docs)-len(missing))
	return out, nil
}

// version keys a stored vector on the model and the embedded text.
func (e *EmbeddingModel) version(text string) string {
	return e.embedder.Model() + ":" + storage.HashQuery(text)[:16]
}

// SaveEmbedding persists an embedding vector for a function.
func (e *EmbeddingModel) SaveEmbedding(name string, vector []float32, version string) {
	if e.storage == nil {
		return
	}
	if err := e.storage.SaveEmbedding(name, vector, version); err != nil {
		e.logger.Warn("failed to save embedding to storage", "function", name, "error", err)
	}
}

// GetEmbedding returns the stored vector for a function if its version
// matches, or nil.
func (e *EmbeddingModel) GetEmbedding(name, version string) []float32 {
	if e.storage == nil {
		return nil
	}

	vector, stored, err := e.storage.GetEmbedding(name)
	if err != nil || vector == nil || stored != version {
		return nil
	}
	return vector
}

// ClearCache clears the in-memory prompt cache.
func (e *EmbeddingModel) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cache = make(map[string][]float32)
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct float64
	var normA float64
	var normB float64

	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
