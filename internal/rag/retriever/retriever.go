// Package retriever turns a text query into ranked corpus movies.
package retriever

import (
	"context"
	"errors"
	"strings"

	"movieqa/internal/models"
)

// Result is an alias to models.SearchResult for clarity at call sites.
type Result = models.SearchResult

// ErrBlankQuery is returned for empty or whitespace-only queries.
var ErrBlankQuery = errors.New("retriever: blank query")

// Retriever returns top-K movies for a query. k <= 0 means 5.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]Result, error)
}

func checkQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", ErrBlankQuery
	}
	return q, nil
}
