package llm

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CacheStats counts cache outcomes since the embedder was created.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// CachingEmbedder memoizes vectors per (model, input) with size and TTL
// bounds. Only inputs not in the cache reach the wrapped embedder.
type CachingEmbedder struct {
	u     Embedder
	cache *expirable.LRU[string, []float64]

	hits, misses, evictions atomic.Int64
}

// NewCachingEmbedder wraps u. ttl <= 0 keeps entries until they are pushed
// out by size.
func NewCachingEmbedder(u Embedder, size int, ttl time.Duration) *CachingEmbedder {
	c := &CachingEmbedder{u: u}
	c.cache = expirable.NewLRU[string, []float64](size, func(string, []float64) {
		c.evictions.Add(1)
	}, ttl)
	return c
}

func (c *CachingEmbedder) Embeddings(ctx context.Context, model string, inputs []string) ([][]float64, error) {
	out := make([][]float64, len(inputs))
	var missIdx []int
	for i, s := range inputs {
		if v, ok := c.cache.Get(cacheKey(model, s)); ok && len(v) > 0 {
			out[i] = v
			c.hits.Add(1)
			continue
		}
		missIdx = append(missIdx, i)
	}
	if len(missIdx) == 0 {
		return out, nil
	}
	req := make([]string, len(missIdx))
	for j, i := range missIdx {
		req[j] = inputs[i]
	}
	vecs, err := c.u.Embeddings(ctx, model, req)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(req) {
		return nil, fmt.Errorf("llm: provider returned %d vectors for %d inputs", len(vecs), len(req))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		c.cache.Add(cacheKey(model, inputs[i]), vecs[j])
		c.misses.Add(1)
	}
	return out, nil
}

// Stats returns a snapshot of the counters.
func (c *CachingEmbedder) Stats() CacheStats {
	return CacheStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Evictions: c.evictions.Load()}
}

func (c *CachingEmbedder) Len() int { return c.cache.Len() }

func cacheKey(model, input string) string {
	return model + "|" + input
}
