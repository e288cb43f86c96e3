package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var functionDocs = []Document{
	{Name: "open_chrome", Text: "Open the Google Chrome web browser"},
	{Name: "open_calculator", Text: "Open the calculator application"},
	{Name: "open_notepad", Text: "Open the notepad text editor"},
	{Name: "get_cpu_usage", Text: "Get the current CPU usage percentage"},
	{Name: "get_ram_usage", Text: "Get the current RAM memory usage percentage"},
	{Name: "list_files", Text: "List files in the current directory"},
}

func newTestIndex(t *testing.T, emb Embedder, threshold float64) *Index {
	t.Helper()

	keyword, err := NewIndexer()
	require.NoError(t, err)
	t.Cleanup(func() { keyword.Close() })

	return NewIndex(NewEmbeddingModel(emb, nil, nil), keyword, Options{Threshold: threshold})
}

func TestIndex_ResolveOwnDescription(t *testing.T) {
	idx := newTestIndex(t, NewHashEmbedder(1024), 0.25)
	require.NoError(t, idx.Build(context.Background(), functionDocs))
	assert.Equal(t, len(functionDocs), idx.Len())

	for _, doc := range functionDocs {
		m, err := idx.Resolve(context.Background(), doc.Text)
		require.NoError(t, err)
		assert.Equal(t, doc.Name, m.Function, "description %q", doc.Text)
		assert.InDelta(t, 1.0, m.Score, 1e-5)
	}
}

func TestIndex_ResolvePrompts(t *testing.T) {
	idx := newTestIndex(t, NewHashEmbedder(1024), 0.25)
	require.NoError(t, idx.Build(context.Background(), functionDocs))

	tests := []struct {
		prompt string
		want   string
	}{
		{"Open Chrome", "open_chrome"},
		{"List files", "list_files"},
		{"What's my CPU usage?", "get_cpu_usage"},
		{"How much RAM is used?", "get_ram_usage"},
		{"open calculator", "open_calculator"},
		{"tell me a joke", NoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			m, err := idx.Resolve(context.Background(), tt.prompt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Function)
			assert.Equal(t, MethodSemantic, m.Method)
		})
	}
}

func TestIndex_EmptyIndexReturnsNoMatch(t *testing.T) {
	idx := newTestIndex(t, NewHashEmbedder(64), 0)

	m, err := idx.Resolve(context.Background(), "Open Chrome")
	require.NoError(t, err)
	assert.Equal(t, NoMatch, m.Function)
	assert.False(t, m.Matched())
}

func TestIndex_TiesGoToFirstRegistered(t *testing.T) {
	same := []float32{1, 0}
	emb := &fixedEmbedder{vectors: map[string][]float32{
		"first":  same,
		"second": same,
		"prompt": same,
	}}
	idx := newTestIndex(t, emb, 0.1)
	require.NoError(t, idx.Build(context.Background(), []Document{
		{Name: "b_second_registered", Text: "first"},
		{Name: "a_first_alphabetically", Text: "second"},
	}))

	m, err := idx.Resolve(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "b_second_registered", m.Function)
}

func TestIndex_BelowThreshold(t *testing.T) {
	emb := &fixedEmbedder{vectors: map[string][]float32{
		"doc":    {1, 0},
		"prompt": {0.5, 0.866},
	}}
	idx := newTestIndex(t, emb, 0.6)
	require.NoError(t, idx.Build(context.Background(), []Document{{Name: "only", Text: "doc"}}))

	m, err := idx.Resolve(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, NoMatch, m.Function)
	assert.InDelta(t, 0.5, m.Score, 1e-3)
}

func TestIndex_FallsBackToBM25(t *testing.T) {
	emb := &flakyEmbedder{Embedder: NewHashEmbedder(1024)}
	idx := newTestIndex(t, emb, 0.25)
	require.NoError(t, idx.Build(context.Background(), functionDocs))

	emb.fail = true

	m, err := idx.Resolve(context.Background(), "launch the calculator")
	require.NoError(t, err)
	assert.Equal(t, "open_calculator", m.Function)
	assert.Equal(t, MethodBM25, m.Method)

	m, err = idx.Resolve(context.Background(), "zebra")
	require.NoError(t, err)
	assert.Equal(t, NoMatch, m.Function)
}

func TestIndex_EmbedErrorWithoutFallback(t *testing.T) {
	emb := &flakyEmbedder{Embedder: NewHashEmbedder(64)}
	idx := NewIndex(NewEmbeddingModel(emb, nil, nil), nil, Options{Threshold: 0.25})
	require.NoError(t, idx.Build(context.Background(), functionDocs))

	emb.fail = true

	_, err := idx.Resolve(context.Background(), "Open Chrome")
	assert.Error(t, err)
}

func TestIndex_CanceledContextSkipsFallback(t *testing.T) {
	idx := newTestIndex(t, NewHashEmbedder(1024), 0.25)
	require.NoError(t, idx.Build(context.Background(), functionDocs))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := idx.Resolve(ctx, "launch the calculator")
	assert.ErrorIs(t, err, context.Canceled)

	ctx, cancel = context.WithTimeout(context.Background(), 0)
	defer cancel()
	_, err = idx.Resolve(ctx, "open the notepad")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIndex_BuildPrunesStaleEmbeddings(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.SaveEmbedding("retired_function", []float32{1, 2}, "old"))

	keyword, err := NewIndexer()
	require.NoError(t, err)
	defer keyword.Close()

	idx := NewIndex(NewEmbeddingModel(NewHashEmbedder(64), store, nil), keyword, Options{Threshold: 0.25})
	require.NoError(t, idx.Build(context.Background(), functionDocs))

	stored, err := store.ListEmbeddings()
	require.NoError(t, err)
	require.Len(t, stored, len(functionDocs))
	for _, e := range stored {
		assert.NotEqual(t, "retired_function", e.Name)
	}

	count, err := keyword.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(functionDocs)), count)
}

func TestIndexer_RebuildReplacesDocuments(t *testing.T) {
	keyword, err := NewIndexer()
	require.NoError(t, err)
	defer keyword.Close()

	require.NoError(t, keyword.IndexDocuments(functionDocs))
	require.NoError(t, keyword.IndexDocuments(functionDocs[:2]))

	all, err := keyword.GetAll(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "open_calculator", all[0].Name)
	assert.Equal(t, "open_chrome", all[1].Name)
}

type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) Model() string { return "fixed" }

func (f *fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, ok := f.vectors[text]
		if !ok {
			return nil, errors.New("no vector for " + text)
		}
		out[i] = vec
	}
	return out, nil
}

type flakyEmbedder struct {
	Embedder
	fail bool
}

func (f *flakyEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.fail {
		return nil, errors.New("embedding service unavailable")
	}
	return f.Embedder.Embed(ctx, texts)
}
