package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
)

// evalDepth is how many results each case retrieves; hit@10 and MRR look no
// further.
const evalDepth = 10

// QueryCase is one labelled question: any of Titles counts as a correct hit.
type QueryCase struct {
	Query  string   `json:"query"`
	Titles []string `json:"titles"`
}

// Report summarizes a retriever over a set of cases.
type Report struct {
	Cases   int     `json:"cases"`
	HitAt5  float64 `json:"hit_at_5"`
	HitAt10 float64 `json:"hit_at_10"`
	MRR     float64 `json:"mrr"`
	// Misses are the queries with no expected title in the top 10.
	Misses []string `json:"misses,omitempty"`
}

// ReadCases decodes a JSON array of cases, e.g.
//
//	[{"query": "¿Quién dirigió Titanic?", "titles": ["Titanic"]}]
func ReadCases(r io.Reader) ([]QueryCase, error) {
	var cases []QueryCase
	if err := json.NewDecoder(r).Decode(&cases); err != nil {
		return nil, fmt.Errorf("decode cases: %w", err)
	}
	for i, c := range cases {
		if strings.TrimSpace(c.Query) == "" {
			return nil, fmt.Errorf("case %d: empty query", i+1)
		}
		if len(c.Titles) == 0 {
			return nil, fmt.Errorf("case %d (%q): no expected titles", i+1, c.Query)
		}
	}
	return cases, nil
}

// Evaluate runs r over every case and reports hit@5, hit@10 and MRR.
func Evaluate(ctx context.Context, r Retriever, cases []QueryCase) (Report, error) {
	rep := Report{Cases: len(cases)}
	if len(cases) == 0 {
		return rep, nil
	}
	var hit5, hit10, rrSum float64
	for _, c := range cases {
		res, err := r.Retrieve(ctx, c.Query, evalDepth)
		if err != nil {
			return Report{}, fmt.Errorf("query %q: %w", c.Query, err)
		}
		rank := firstRelevant(res, c.Titles)
		switch {
		case rank == 0:
			rep.Misses = append(rep.Misses, c.Query)
			continue
		case rank <= 5:
			hit5++
		}
		hit10++
		rrSum += 1 / float64(rank)
	}
	n := float64(len(cases))
	rep.HitAt5, rep.HitAt10, rep.MRR = hit5/n, hit10/n, rrSum/n
	return rep, nil
}

// firstRelevant is the 1-based rank of the first expected title within the
// evaluation depth, or 0. Titles compare case-insensitively.
func firstRelevant(res []Result, titles []string) int {
	for i, r := range res[:min(len(res), evalDepth)] {
		if slices.ContainsFunc(titles, func(t string) bool { return strings.EqualFold(t, r.Movie.Title) }) {
			return i + 1
		}
	}
	return 0
}
