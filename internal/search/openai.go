package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIConfig configures an OpenAI-compatible embeddings endpoint.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int

	// Options are appended to the client options (tests use them to
	// disable retries).
	Options []option.RequestOption
}

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint.
type OpenAIEmbedder struct {
	client     openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder creates an embedder. An API key is required.
func NewOpenAIEmbedder(cfg OpenAIConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai embedder: API key is not set")
	}
	if cfg.Model == "" {
		return nil, errors.New("openai embedder: model is not set")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, cfg.Options...)

	return &OpenAIEmbedder{
		client:     openai.NewClient(opts...),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// Model returns the configured model name.
func (o *OpenAIEmbedder) Model() string {
	if o.dimensions > 0 {
		return fmt.Sprintf("%s@%d", o.model, o.dimensions)
	}
	return o.model
}

// Embed sends all texts in one request.
func (o *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(o.model),
	}
	if o.dimensions > 0 {
		params.Dimensions = openai.Int(int64(o.dimensions))
	}

	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("embeddings response index %d out of range", d.Index)
		}
		// With the count checked above, no duplicates means every slot is filled.
		if out[d.Index] != nil {
			return nil, fmt.Errorf("embeddings response repeats index %d", d.Index)
		}
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("embeddings response index %d has an empty vector", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		out[d.Index] = vec
	}
	return out, nil
}
