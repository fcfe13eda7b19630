package retriever

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"movieqa/internal/corpus"
	"movieqa/internal/rag/similarity"
	"movieqa/internal/vectorstore"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// LexicalRetriever ranks movies by BM25 over their document text. It needs
// no embedding provider.
type LexicalRetriever struct {
	src vectorstore.Source

	mu    sync.Mutex
	built *corpus.Corpus
	idx   *bm25Index
}

func NewLexical(src vectorstore.Source) *LexicalRetriever { return &LexicalRetriever{src: src} }

type posting struct {
	doc int
	tf  int
}

type bm25Index struct {
	postings map[string][]posting
	docLen   []int
	avgLen   float64
}

func (r *LexicalRetriever) index(c *corpus.Corpus) *bm25Index {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.built == c {
		return r.idx
	}
	idx := &bm25Index{postings: make(map[string][]posting), docLen: make([]int, c.Len())}
	var total int
	for i, m := range c.Movies() {
		toks := tokenize(m.Document())
		idx.docLen[i] = len(toks)
		total += len(toks)
		tf := make(map[string]int, len(toks))
		for _, t := range toks {
			tf[t]++
		}
		for t, n := range tf {
			idx.postings[t] = append(idx.postings[t], posting{doc: i, tf: n})
		}
	}
	if c.Len() > 0 {
		idx.avgLen = float64(total) / float64(c.Len())
	}
	r.built, r.idx = c, idx
	return idx
}

func (r *LexicalRetriever) Retrieve(ctx context.Context, query string, k int) ([]Result, error) {
	q, err := checkQuery(query)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = similarity.DefaultK
	}
	c, err := r.src.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := r.index(c)
	n := float64(len(idx.docLen))
	scores := make(map[int]float64)
	seen := make(map[string]bool)
	for _, t := range tokenize(q) {
		if seen[t] {
			continue
		}
		seen[t] = true
		ps := idx.postings[t]
		if len(ps) == 0 {
			continue
		}
		df := float64(len(ps))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		for _, p := range ps {
			tf := float64(p.tf)
			norm := bm25K1 * (1 - bm25B + bm25B*float64(idx.docLen[p.doc])/idx.avgLen)
			scores[p.doc] += idf * tf * (bm25K1 + 1) / (tf + norm)
		}
	}
	out := make([]Result, 0, len(scores))
	for i, s := range scores {
		out = append(out, Result{Index: i, Score: s, Movie: c.Movie(i)})
	}
	sortResults(out)
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// tokenize lowercases s and splits it on anything that is not a letter or
// a digit.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// sortResults orders by score, highest first, then by corpus position.
func sortResults(rs []Result) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Score != rs[j].Score {
			return rs[i].Score > rs[j].Score
		}
		return rs[i].Index < rs[j].Index
	})
}
