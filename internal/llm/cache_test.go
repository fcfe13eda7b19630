package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbedder struct {
	calls  int
	inputs []string
	err    error
}

func (f *fakeEmbedder) Embeddings(ctx context.Context, model string, inputs []string) ([][]float64, error) {
	f.calls++
	f.inputs = append(f.inputs, inputs...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(inputs))
	for i, s := range inputs {
		out[i] = []float64{float64(len(s)), 1}
	}
	return out, nil
}

func TestCachingEmbedderHit(t *testing.T) {
	fe := &fakeEmbedder{}
	ce := NewCachingEmbedder(fe, 16, time.Hour)

	v1, err := ce.Embeddings(context.Background(), "m", []string{"hello"})
	require.NoError(t, err)
	v2, err := ce.Embeddings(context.Background(), "m", []string{"hello"})
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, fe.calls)
	assert.Equal(t, CacheStats{Hits: 1, Misses: 1}, ce.Stats())
}

func TestCachingEmbedderOnlyForwardsMisses(t *testing.T) {
	fe := &fakeEmbedder{}
	ce := NewCachingEmbedder(fe, 16, 0)
	_, err := ce.Embeddings(context.Background(), "m", []string{"a"})
	require.NoError(t, err)

	out, err := ce.Embeddings(context.Background(), "m", []string{"bb", "a", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "bb", "ccc"}, fe.inputs)
	assert.Equal(t, [][]float64{{2, 1}, {1, 1}, {3, 1}}, out)
}

func TestCachingEmbedderKeysByModel(t *testing.T) {
	fe := &fakeEmbedder{}
	ce := NewCachingEmbedder(fe, 16, 0)
	_, _ = ce.Embeddings(context.Background(), "m1", []string{"x"})
	_, _ = ce.Embeddings(context.Background(), "m2", []string{"x"})
	assert.Equal(t, 2, fe.calls)
}

func TestCachingEmbedderEvictsBySize(t *testing.T) {
	fe := &fakeEmbedder{}
	ce := NewCachingEmbedder(fe, 2, 0)
	_, err := ce.Embeddings(context.Background(), "m", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, ce.Len())
	assert.Equal(t, int64(1), ce.Stats().Evictions)
}

func TestCachingEmbedderErrorNotCached(t *testing.T) {
	fe := &fakeEmbedder{err: errors.New("down")}
	ce := NewCachingEmbedder(fe, 4, 0)
	_, err := ce.Embeddings(context.Background(), "m", []string{"a"})
	require.Error(t, err)
	assert.Equal(t, 0, ce.Len())
}

type shortEmbedder struct{}

func (shortEmbedder) Embeddings(ctx context.Context, model string, inputs []string) ([][]float64, error) {
	return [][]float64{{1, 0}}, nil
}

func TestCachingEmbedderRejectsShortResponse(t *testing.T) {
	ce := NewCachingEmbedder(shortEmbedder{}, 4, 0)
	vecs, err := ce.Embeddings(context.Background(), "m", []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 vectors for 2 inputs")
	assert.Nil(t, vecs)
	assert.Equal(t, 0, ce.Len())
}

func TestEmbedOne(t *testing.T) {
	v, err := EmbedOne(context.Background(), &fakeEmbedder{}, "m", "abc")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, v)
}
