package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movieqa/internal/llm"
)

var _ llm.Embedder = (*Client)(nil)

func TestEmbeddings(t *testing.T) {
	var gotModel string
	var gotInput []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/embed", r.URL.Path)
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotModel, gotInput = req.Model, req.Input
		vecs := make([][]float32, len(req.Input))
		for i := range vecs {
			vecs[i] = []float32{float32(i), 0.5}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"model": req.Model, "embeddings": vecs})
	}))
	defer srv.Close()

	c, err := New(srv.URL, "", nil)
	require.NoError(t, err)
	vecs, err := c.Embeddings(context.Background(), "", []string{"Titanic", "Alien"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, gotModel)
	assert.Equal(t, []string{"Titanic", "Alien"}, gotInput)
	assert.Equal(t, [][]float64{{0, 0.5}, {1, 0.5}}, vecs)

	vecs, err = c.Embeddings(context.Background(), "", nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbeddingsCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embeddings":[[1,2]]}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "m", nil)
	require.NoError(t, err)
	_, err = c.Embeddings(context.Background(), "", []string{"a", "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "got 1 vectors for 2 inputs")
}

func TestEmbeddingsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"m\" not found"}`))
	}))
	defer srv.Close()

	c, err := New(srv.URL, "m", nil)
	require.NoError(t, err)
	_, err = c.Embeddings(context.Background(), "", []string{"a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
