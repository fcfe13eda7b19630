package retriever

import (
	"context"

	"movieqa/internal/rag/similarity"
)

// HybridRetriever unions lexical and KNN results and re-ranks with a weighted
// sum of the per-list normalised scores:
// score = lexical + alpha * knn
type HybridRetriever struct {
	lexical Retriever
	knn     Retriever
	alpha   float64
}

func NewHybrid(lex Retriever, knn Retriever, alpha float64) *HybridRetriever {
	return &HybridRetriever{lexical: lex, knn: knn, alpha: alpha}
}

func (h *HybridRetriever) Retrieve(ctx context.Context, query string, k int) ([]Result, error) {
	if k <= 0 {
		k = similarity.DefaultK
	}
	// over-fetch so the union has room to re-rank
	lex, err := h.lexical.Retrieve(ctx, query, 2*k)
	if err != nil {
		return nil, err
	}
	knn, err := h.knn.Retrieve(ctx, query, 2*k)
	if err != nil {
		return nil, err
	}
	m := make(map[int]*Result)
	add := func(arr []Result, weight float64) {
		var top float64
		for _, r := range arr {
			if r.Score > top {
				top = r.Score
			}
		}
		if top <= 0 {
			return
		}
		for _, r := range arr {
			if r.Score <= 0 {
				continue
			}
			a, ok := m[r.Index]
			if !ok {
				cp := r
				cp.Score = 0
				a = &cp
				m[r.Index] = a
			}
			a.Score += weight * r.Score / top
		}
	}
	add(lex, 1.0)
	add(knn, h.alpha)

	out := make([]Result, 0, len(m))
	for _, r := range m {
		out = append(out, *r)
	}
	sortResults(out)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}
