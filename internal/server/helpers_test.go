package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"movieqa/internal/corpus"
	"movieqa/internal/models"
)

type fakeAsker struct {
	answer string
	err    error
	got    []string
}

func (f *fakeAsker) Ask(ctx context.Context, q string) (string, error) {
	f.got = append(f.got, q)
	return f.answer, f.err
}

type staticSource struct {
	c   *corpus.Corpus
	err error
}

func (s staticSource) Load(context.Context) (*corpus.Corpus, error) { return s.c, s.err }

// oneHot embeds a fixed vocabulary so tests can aim at a single movie.
type oneHot struct{}

var vocab = []string{"ship", "space", "heist"}

func (oneHot) Embeddings(ctx context.Context, model string, inputs []string) ([][]float64, error) {
	out := make([][]float64, len(inputs))
	for i, in := range inputs {
		v := make([]float64, len(vocab))
		for j, w := range vocab {
			if strings.Contains(strings.ToLower(in), w) {
				v[j] = 1
			}
		}
		out[i] = v
	}
	return out, nil
}

func testCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()
	movies := []models.Movie{
		models.MovieFromFields(map[string]string{"title": "Titanic", "year": "1997", "description": "A ship hits an iceberg"}),
		models.MovieFromFields(map[string]string{"title": "Alien", "year": "1979", "description": "A crew meets a creature in space"}),
		models.MovieFromFields(map[string]string{"title": "Heat", "year": "1995", "description": "A crew plans a heist"}),
	}
	c, err := corpus.New(movies, [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	require.NoError(t, err)
	return c
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func jsonBody(s string) *strings.Reader { return strings.NewReader(s) }
