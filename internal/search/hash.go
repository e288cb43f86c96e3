package search

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// stopWords are dropped before hashing so filler words do not create
// similarity between unrelated prompts.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "at": true, "be": true,
	"can": true, "could": true, "do": true, "does": true, "for": true,
	"from": true, "how": true, "i": true, "in": true, "is": true, "it": true,
	"its": true, "me": true, "much": true, "my": true, "need": true, "of": true,
	"on": true, "or": true, "please": true, "s": true, "some": true,
	"that": true, "the": true, "this": true, "to": true, "up": true,
	"what": true, "whats": true, "with": true, "would": true, "you": true,
	"your": true,
}

// HashEmbedder is a local bag-of-words embedder using feature hashing.
// It needs no model files or credentials, and equal texts always produce
// equal vectors.
type HashEmbedder struct {
	dims int
}

// NewHashEmbedder creates a hashing embedder with dims buckets.
func NewHashEmbedder(dims int) *HashEmbedder {
	if dims <= 0 {
		dims = 1024
	}
	return &HashEmbedder{dims: dims}
}

// Model returns an identifier that changes with the bucket count.
func (h *HashEmbedder) Model() string {
	return fmt.Sprintf("hash-bow-%d", h.dims)
}

// Dimensions returns the vector length.
func (h *HashEmbedder) Dimensions() int {
	return h.dims
}

// Embed returns one L2-normalized vector per text. Texts without any
// content words map to the zero vector.
func (h *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = h.embed(text)
	}
	return out, nil
}

func (h *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, h.dims)
	for _, tok := range Tokenize(text) {
		hasher := fnv.New32a()
		hasher.Write([]byte(tok))
		vec[hasher.Sum32()%uint32(h.dims)]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// Tokenize lower-cases text, splits on anything that is not a letter or
// digit, drops stop words and folds simple plurals ("files" → "file").
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if stopWords[f] {
			continue
		}
		if len(f) > 3 && strings.HasSuffix(f, "s") && !strings.HasSuffix(f, "ss") {
			f = strings.TrimSuffix(f, "s")
		}
		tokens = append(tokens, f)
	}
	return tokens
}
