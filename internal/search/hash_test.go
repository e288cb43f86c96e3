package search

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Open Chrome", []string{"open", "chrome"}},
		{"What's my CPU usage?", []string{"cpu", "usage"}},
		{"List files in the current directory", []string{"list", "file", "current", "directory"}},
		{"process access", []string{"process", "access"}},
		{"", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestHashEmbedder_Normalized(t *testing.T) {
	emb := NewHashEmbedder(256)

	vecs, err := emb.Embed(context.Background(), []string{"Open the calculator application", "the of and"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	var norm float64
	for _, v := range vecs[0] {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)

	for _, v := range vecs[1] {
		assert.Zero(t, v, "stop words only should embed to the zero vector")
	}
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	a, err := NewHashEmbedder(128).Embed(context.Background(), []string{"List files"})
	require.NoError(t, err)
	b, err := NewHashEmbedder(128).Embed(context.Background(), []string{"list FILES!"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestHashEmbedder_ModelIncludesDimensions(t *testing.T) {
	assert.NotEqual(t, NewHashEmbedder(64).Model(), NewHashEmbedder(128).Model())
	assert.Equal(t, 1024, NewHashEmbedder(0).Dimensions())
}

func TestHashEmbedder_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHashEmbedder(64).Embed(ctx, []string{"x"})
	assert.ErrorIs(t, err, context.Canceled)
}
