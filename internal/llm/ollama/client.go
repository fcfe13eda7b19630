// Package ollama implements llm.Embedder against a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"movieqa/internal/config"
)

const DefaultModel = "mxbai-embed-large"

type Client struct {
	api   *api.Client
	model string
}

// New talks to the Ollama server at host.
func New(host, model string, hc *http.Client) (*Client, error) {
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("ollama host %q: %w", host, err)
	}
	if model == "" {
		model = DefaultModel
	}
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{api: api.NewClient(u, hc), model: model}, nil
}

func NewFromConfig(cfg config.OllamaConfig) (*Client, error) {
	return New(cfg.Host, cfg.Model, nil)
}

func (c *Client) Model() string { return c.model }

// Embeddings implements llm.Embedder using the batch /api/embed endpoint.
func (c *Client) Embeddings(ctx context.Context, model string, inputs []string) ([][]float64, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if model == "" {
		model = c.model
	}
	resp, err := c.api.Embed(ctx, &api.EmbedRequest{Model: model, Input: inputs})
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}
	if len(resp.Embeddings) != len(inputs) {
		return nil, fmt.Errorf("ollama embed: got %d vectors for %d inputs", len(resp.Embeddings), len(inputs))
	}
	out := make([][]float64, len(resp.Embeddings))
	for i, v := range resp.Embeddings {
		row := make([]float64, len(v))
		for j, x := range v {
			row[j] = float64(x)
		}
		out[i] = row
	}
	return out, nil
}
