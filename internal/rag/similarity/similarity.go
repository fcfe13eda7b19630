// Package similarity scores embedding vectors against each other.
package similarity

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// DefaultK is the number of candidates kept by TopK when k <= 0.
const DefaultK = 5

var (
	ErrDimensionMismatch = errors.New("similarity: vectors differ in length")
	ErrZeroVector        = errors.New("similarity: zero-magnitude vector")
	ErrEmptyVector       = errors.New("similarity: empty vector")
)

// Cosine returns dot(a, b) / (|a| * |b|), in [-1, 1].
// Vectors of different length are rejected rather than truncated.
func Cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, ErrEmptyVector
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, ErrZeroVector
	}
	return clamp(dot / (math.Sqrt(na) * math.Sqrt(nb))), nil
}

// Norm returns the L2 magnitude of v.
func Norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func clamp(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}

// Scored is a candidate position with its similarity to the query.
type Scored struct {
	Index int
	Score float64
}

// TopK scores every vector against query and returns the k best, highest
// first. Ties keep corpus order. Zero-magnitude candidates cannot be scored
// and are left out. The query must be non-zero and every candidate must
// share its dimension.
func TopK(query []float64, vectors [][]float64, k int) ([]Scored, error) {
	if k <= 0 {
		k = DefaultK
	}
	if len(query) == 0 {
		return nil, ErrEmptyVector
	}
	qn := Norm(query)
	if qn == 0 {
		return nil, ErrZeroVector
	}
	scored := make([]Scored, 0, len(vectors))
	for i, v := range vectors {
		if len(v) != len(query) {
			return nil, fmt.Errorf("%w: candidate %d has %d dims, query has %d", ErrDimensionMismatch, i, len(v), len(query))
		}
		vn := Norm(v)
		if vn == 0 {
			continue
		}
		var dot float64
		for j := range v {
			dot += query[j] * v[j]
		}
		scored = append(scored, Scored{Index: i, Score: clamp(dot / (qn * vn))})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}
