// Package corpus loads the movie dataset and its embedding matrix into an
// immutable, index-aligned handle.
package corpus

import (
	"errors"
	"fmt"

	"movieqa/internal/models"
)

var (
	ErrEmpty      = errors.New("corpus: no movies")
	ErrMisaligned = errors.New("corpus: movies and vectors are not aligned")
	ErrDimension  = errors.New("corpus: inconsistent vector dimension")
)

// Corpus pairs every movie with its embedding vector by position.
// It is never mutated after New returns; callers must treat the slices
// returned by Movies and Vectors as read-only.
type Corpus struct {
	movies  []models.Movie
	vectors [][]float64
	dim     int
}

// New validates that movies and vectors line up one-to-one and share a
// single non-zero dimension.
func New(movies []models.Movie, vectors [][]float64) (*Corpus, error) {
	if len(movies) == 0 {
		return nil, ErrEmpty
	}
	if len(movies) != len(vectors) {
		return nil, fmt.Errorf("%w: %d movies, %d vectors", ErrMisaligned, len(movies), len(vectors))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: vector 0 is empty", ErrDimension)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d values, expected %d", ErrDimension, i, len(v), dim)
		}
	}
	return &Corpus{movies: movies, vectors: vectors, dim: dim}, nil
}

func (c *Corpus) Len() int { return len(c.movies) }

// Dim is the embedding dimension shared by every vector.
func (c *Corpus) Dim() int { return c.dim }

func (c *Corpus) Movie(i int) models.Movie { return c.movies[i] }

func (c *Corpus) Movies() []models.Movie { return c.movies }

func (c *Corpus) Vectors() [][]float64 { return c.vectors }
