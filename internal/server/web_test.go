package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexPage(t *testing.T) {
	h := NewAPI(Deps{}).Handler()
	rr := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), `fetch("/ask"`)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h, http.MethodPost, "/", "").Code)
}

func TestDataFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "csv"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "csv", "IMDb_movies.csv"), []byte("title\nTitanic\n"), 0o644))

	h := NewAPI(Deps{DataDir: dir}).Handler()
	rr := do(t, h, http.MethodGet, "/data/csv/IMDb_movies.csv", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "title\nTitanic\n", rr.Body.String())

	assert.Equal(t, http.StatusNotFound, do(t, NewAPI(Deps{}).Handler(), http.MethodGet, "/data/csv/IMDb_movies.csv", "").Code)
}

func TestDataFilesGzip(t *testing.T) {
	dir := t.TempDir()
	vectors := "[" + strings.Repeat("[0.125,0.25,0.5],", 500) + "[1,1,1]]"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "embeddings.json"), []byte(vectors), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/data/embeddings.json", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	NewAPI(Deps{DataDir: dir}).Handler().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	got, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, vectors, string(got))
}
