package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movieqa/internal/models"
)

func movies(titles ...string) []models.Movie {
	out := make([]models.Movie, len(titles))
	for i, t := range titles {
		out[i] = models.MovieFromFields(map[string]string{"title": t})
	}
	return out
}

func TestNewValidates(t *testing.T) {
	cases := []struct {
		name    string
		movies  []models.Movie
		vectors [][]float64
		want    error
	}{
		{"empty", nil, nil, ErrEmpty},
		{"misaligned", movies("a", "b"), [][]float64{{1, 0}}, ErrMisaligned},
		{"zero dim", movies("a"), [][]float64{{}}, ErrDimension},
		{"ragged", movies("a", "b"), [][]float64{{1, 0}, {1}}, ErrDimension},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.movies, tc.vectors)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestNewAccessors(t *testing.T) {
	c, err := New(movies("a", "b"), [][]float64{{1, 0, 0}, {0, 1, 0}})
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 3, c.Dim())
	assert.Equal(t, "b", c.Movie(1).Title)
	assert.Len(t, c.Movies(), 2)
	assert.Equal(t, []float64{0, 1, 0}, c.Vectors()[1])
}
