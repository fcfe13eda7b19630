// Package llm defines the embedding provider contract and a caching wrapper.
package llm

import (
	"context"
	"errors"
)

// ErrDisabled is returned by callers that need an embedder when none is
// configured.
var ErrDisabled = errors.New("llm: no embedding provider configured")

// Embedder provides embedding generation APIs. The result holds one vector
// per input, in input order.
type Embedder interface {
	Embeddings(ctx context.Context, model string, inputs []string) ([][]float64, error)
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, model, text string) ([]float64, error) {
	vecs, err := e.Embeddings(ctx, model, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, errors.New("llm: provider returned no embedding")
	}
	return vecs[0], nil
}
