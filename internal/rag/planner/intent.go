// Package planner picks a retrieval strategy for a movie question.
package planner

import (
	"regexp"
	"strings"
)

type Intent string

const (
	IntentUnknown   Intent = "unknown"
	IntentLookup    Intent = "lookup"
	IntentRecommend Intent = "recommend"
	IntentBrowse    Intent = "browse"
)

// Retrieval modes, matching /search?mode=.
const (
	ModeKNN     = "knn"
	ModeLexical = "lexical"
	ModeHybrid  = "hybrid"
)

var (
	reLookup    = regexp.MustCompile(`(?i)what\s+year|which\s+year|who\s+(?:directed|wrote|stars|starred)|how\s+long|qu[eé]\s+año|en\s+qu[eé]\s+año|qui[eé]n\s+(?:dirigi[oó]|escribi[oó]|actu[oó])|cu[aá]nto\s+dura`)
	reRecommend = regexp.MustCompile(`(?i)recommend|similar\s+to|something\s+like|like\s+\w+\s+but|recomi[eé]nd|parecid[ao]s?|similar(?:es)?\s+a`)
	reBrowse    = regexp.MustCompile(`(?i)\b(?:movies|films|pel[ií]culas)\b.*\b(?:from|about|in|de|sobre|en)\b|\b(?:19|20)\d0s\b|años\s+\d0`)
)

// Classify returns a coarse intent for a user query.
func Classify(q string) Intent {
	s := strings.TrimSpace(q)
	if s == "" {
		return IntentUnknown
	}
	if reRecommend.MatchString(s) {
		return IntentRecommend
	}
	if reLookup.MatchString(s) {
		return IntentLookup
	}
	if reBrowse.MatchString(s) {
		return IntentBrowse
	}
	return IntentUnknown
}

// RetrievalK returns a K recommendation by intent given a base K.
func RetrievalK(intent Intent, base int) int {
	if base <= 0 {
		base = 5
	}
	switch intent {
	case IntentLookup:
		return base // one title is usually enough
	case IntentBrowse:
		return max(base, 8)
	case IntentRecommend:
		return max(base, 10)
	default:
		return base
	}
}

// Plan is the strategy chosen for one query.
type Plan struct {
	Intent Intent
	Mode   string
	K      int
}

// For classifies q and picks a mode and K. Lookups name a title, so exact
// term matching ranks them best; recommendations are about meaning.
func For(q string, base int) Plan {
	in := Classify(q)
	mode := ModeHybrid
	switch in {
	case IntentLookup:
		mode = ModeLexical
	case IntentRecommend:
		mode = ModeKNN
	}
	return Plan{Intent: in, Mode: mode, K: RetrievalK(in, base)}
}

// Fallbacks lists the modes to try for p, best first.
func (p Plan) Fallbacks() []string {
	out := []string{p.Mode}
	for _, m := range []string{ModeHybrid, ModeKNN, ModeLexical} {
		if m != p.Mode {
			out = append(out, m)
		}
	}
	return out
}
