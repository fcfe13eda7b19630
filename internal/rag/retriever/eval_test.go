package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateRanks(t *testing.T) {
	ranked := func(titles ...string) []Result {
		out := make([]Result, len(titles))
		for i, title := range titles {
			out[i] = res(i, title, 1/float64(i+1))
		}
		return out
	}
	r := mapRet{
		"first":   ranked("Titanic", "Alien"),
		"third":   ranked("Heat", "Alien", "titanic"),
		"seventh": ranked("a", "b", "c", "d", "e", "f", "Titanic"),
		"missing": ranked("Heat"),
	}
	cases := []QueryCase{
		{Query: "first", Titles: []string{"Titanic"}},
		{Query: "third", Titles: []string{"Titanic"}},
		{Query: "seventh", Titles: []string{"Titanic"}},
		{Query: "missing", Titles: []string{"Titanic"}},
	}
	rep, err := Evaluate(context.Background(), r, cases)
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Cases)
	assert.InDelta(t, 0.5, rep.HitAt5, 1e-9)
	assert.InDelta(t, 0.75, rep.HitAt10, 1e-9)
	assert.InDelta(t, (1+1.0/3+1.0/7)/4, rep.MRR, 1e-9)
	assert.Equal(t, []string{"missing"}, rep.Misses)
}

func TestEvaluateEmpty(t *testing.T) {
	rep, err := Evaluate(context.Background(), mapRet{}, nil)
	require.NoError(t, err)
	assert.Equal(t, Report{}, rep)
}

type failingRet struct{}

func (failingRet) Retrieve(context.Context, string, int) ([]Result, error) {
	return nil, errors.New("corpus unavailable")
}

func TestEvaluatePropagatesErrors(t *testing.T) {
	_, err := Evaluate(context.Background(), failingRet{}, []QueryCase{{Query: "q", Titles: []string{"x"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `query "q": corpus unavailable`)
}

func TestReadCases(t *testing.T) {
	cases, err := ReadCases(strings.NewReader(`[{"query":"¿Quién dirigió Titanic?","titles":["Titanic"]}]`))
	require.NoError(t, err)
	assert.Equal(t, []QueryCase{{Query: "¿Quién dirigió Titanic?", Titles: []string{"Titanic"}}}, cases)

	for _, bad := range []string{
		`{"query":"q"}`,
		`[{"query":" ","titles":["x"]}]`,
		`[{"query":"q","titles":[]}]`,
	} {
		_, err := ReadCases(strings.NewReader(bad))
		assert.Error(t, err, fmt.Sprintf("input %s", bad))
	}
}
