package main

import (
	"movieqa/internal/config"
	"movieqa/internal/llm"
	"movieqa/internal/llm/ollama"
	"movieqa/internal/llm/openai"
)

type modelEmbedder interface {
	llm.Embedder
	Model() string
}

// newEmbedder returns the configured embedding provider, or llm.ErrDisabled.
func newEmbedder(cfg *config.Config) (modelEmbedder, error) {
	if cfg.Provider == "ollama" {
		c, err := ollama.NewFromConfig(cfg.Ollama)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := openai.NewFromConfig(cfg.OpenAI)
	if err != nil {
		return nil, err
	}
	return c, nil
}
