package vectorstore

import (
	"context"
	"fmt"

	"movieqa/internal/corpus"
	"movieqa/internal/models"
	"movieqa/internal/rag/similarity"
)

// Source yields the corpus to search. *corpus.Loader satisfies it.
type Source interface {
	Load(ctx context.Context) (*corpus.Corpus, error)
}

// Memory is a brute-force store over an in-memory corpus.
type Memory struct {
	src Source
}

func NewMemory(src Source) *Memory { return &Memory{src: src} }

func (m *Memory) Search(ctx context.Context, query []float64, k int) ([]models.SearchResult, error) {
	c, err := m.src.Load(ctx)
	if err != nil {
		return nil, err
	}
	scored, err := similarity.TopK(query, c.Vectors(), k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]models.SearchResult, len(scored))
	for i, s := range scored {
		out[i] = models.SearchResult{Index: s.Index, Score: s.Score, Movie: c.Movie(s.Index)}
	}
	return out, nil
}
