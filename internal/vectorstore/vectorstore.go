// Package vectorstore ranks corpus movies by similarity to a query vector.
package vectorstore

import (
	"context"

	"movieqa/internal/models"
)

// VectorStore is the search side of a corpus. k <= 0 means the default of 5.
type VectorStore interface {
	Search(ctx context.Context, query []float64, k int) ([]models.SearchResult, error)
}
