package retriever

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movieqa/internal/models"
)

type fakeRet struct {
	out []Result
	err error
}

func (f fakeRet) Retrieve(ctx context.Context, query string, k int) ([]Result, error) {
	return f.out, f.err
}

func res(idx int, title string, score float64) Result {
	return Result{Index: idx, Score: score, Movie: models.Movie{Title: title}}
}

func TestHybridRetrieverUnionAndRank(t *testing.T) {
	lex := fakeRet{out: []Result{res(0, "a", 4.0), res(1, "b", 2.0)}}
	kn := fakeRet{out: []Result{res(0, "a", 0.9), res(2, "c", 0.8)}}
	got, err := NewHybrid(lex, kn, 0.5).Retrieve(context.Background(), "q", 10)
	require.NoError(t, err)
	// expect union {a,b,c} with a first due to highest agg score
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Movie.Title)
	assert.InDelta(t, 1.5, got[0].Score, 1e-9)
}

func TestHybridRetrieverPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewHybrid(fakeRet{err: boom}, fakeRet{}, 1).Retrieve(context.Background(), "q", 3)
	require.ErrorIs(t, err, boom)
	_, err = NewHybrid(fakeRet{}, fakeRet{err: boom}, 1).Retrieve(context.Background(), "q", 3)
	require.ErrorIs(t, err, boom)
}
