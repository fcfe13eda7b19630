// Package openai implements llm.Embedder against the OpenAI embeddings API,
// or an Azure OpenAI deployment when an Azure endpoint is configured.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"movieqa/internal/config"
	"movieqa/internal/llm"
)

// DefaultModel is used when a call passes an empty model name.
const DefaultModel = "text-embedding-3-small"

type Client struct {
	sdk   oai.Client
	model string
}

// New builds a client from raw SDK options.
func New(model string, opts ...option.RequestOption) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{sdk: oai.NewClient(opts...), model: model}
}

// NewFromConfig picks Azure when an endpoint is set, else the plain API
// (optionally at a compatible base URL). It returns llm.ErrDisabled when
// neither is configured.
func NewFromConfig(cfg config.OpenAIConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, llm.ErrDisabled
	}
	opts := []option.RequestOption{
		option.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		option.WithMaxRetries(2),
	}
	if cfg.Endpoint != "" {
		opts = append(opts,
			azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
			azure.WithAPIKey(cfg.APIKey),
		)
	} else {
		if cfg.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(cfg.BaseURL))
		}
		if cfg.PlainAPIKey != "" {
			opts = append(opts, option.WithAPIKey(cfg.PlainAPIKey))
		}
	}
	return New(cfg.EmbeddingModel, opts...), nil
}

// Model is the model used when callers pass "".
func (c *Client) Model() string { return c.model }

// Embeddings implements llm.Embedder. Vectors are returned in input order
// regardless of the order the API lists them in.
func (c *Client) Embeddings(ctx context.Context, model string, inputs []string) ([][]float64, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if model == "" {
		model = c.model
	}
	resp, err := c.sdk.Embeddings.New(ctx, oai.EmbeddingNewParams{
		Input:          oai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: inputs},
		Model:          oai.EmbeddingModel(model),
		EncodingFormat: oai.EmbeddingNewParamsEncodingFormatFloat,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d inputs", len(resp.Data), len(inputs))
	}
	out := make([][]float64, len(inputs))
	for _, d := range resp.Data {
		i := int(d.Index)
		if i < 0 || i >= len(out) || out[i] != nil {
			return nil, fmt.Errorf("embeddings: unexpected index %d", d.Index)
		}
		out[i] = d.Embedding
	}
	return out, nil
}
