package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		q    string
		want Intent
	}{
		{"What year was Titanic released?", IntentLookup},
		{"¿Quién dirigió Alien?", IntentLookup},
		{"¿En qué año se estrenó Heat?", IntentLookup},
		{"recommend something like Alien", IntentRecommend},
		{"películas parecidas a Titanic", IntentRecommend},
		{"movies from the 1990s", IntentBrowse},
		{"películas sobre el océano", IntentBrowse},
		{"Titanic", IntentUnknown},
		{"   ", IntentUnknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Classify(c.q), c.q)
	}
}

func TestRetrievalK(t *testing.T) {
	assert.Equal(t, 5, RetrievalK(IntentLookup, 5))
	assert.Equal(t, 8, RetrievalK(IntentBrowse, 5))
	assert.Equal(t, 10, RetrievalK(IntentRecommend, 5))
	assert.Equal(t, 12, RetrievalK(IntentRecommend, 12))
	assert.Equal(t, 5, RetrievalK(IntentUnknown, 0))
}

func TestFor(t *testing.T) {
	p := For("What year was Titanic released?", 5)
	assert.Equal(t, Plan{Intent: IntentLookup, Mode: ModeLexical, K: 5}, p)
	assert.Equal(t, []string{ModeLexical, ModeHybrid, ModeKNN}, p.Fallbacks())

	p = For("recommend a film like Heat", 3)
	assert.Equal(t, ModeKNN, p.Mode)
	assert.Equal(t, 10, p.K)
	assert.Equal(t, []string{ModeKNN, ModeHybrid, ModeLexical}, p.Fallbacks())

	assert.Equal(t, ModeHybrid, For("Titanic", 5).Mode)
}
