package retriever

import (
	"context"
	"fmt"

	"movieqa/internal/llm"
	"movieqa/internal/vectorstore"
)

// KNNRetriever embeds the query and ranks the vector store by cosine
// similarity.
type KNNRetriever struct {
	vs    vectorstore.VectorStore
	emb   llm.Embedder
	model string
}

// NewKNN returns a semantic retriever. An empty model lets the embedder
// choose its default.
func NewKNN(vs vectorstore.VectorStore, emb llm.Embedder, model string) *KNNRetriever {
	return &KNNRetriever{vs: vs, emb: emb, model: model}
}

func (r *KNNRetriever) Retrieve(ctx context.Context, query string, k int) ([]Result, error) {
	q, err := checkQuery(query)
	if err != nil {
		return nil, err
	}
	vec, err := llm.EmbedOne(ctx, r.emb, r.model, q)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return r.vs.Search(ctx, vec, k)
}
