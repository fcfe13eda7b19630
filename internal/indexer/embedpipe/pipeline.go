// Package embedpipe builds the embedding matrix for a movie dataset.
package embedpipe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"movieqa/internal/llm"
	mylog "movieqa/internal/log"
	"movieqa/internal/models"
)

const (
	DefaultBatch   = 16
	DefaultWorkers = 4
	// conservative cap on characters sent per document
	maxDocChars = 8000
)

type Pipeline struct {
	emb     llm.Embedder
	model   string
	batch   int
	workers int
	log     *mylog.Logger

	// Progress, when set, is called after every finished batch with the
	// number of movies embedded so far.
	Progress func(done, total int)
}

func New(emb llm.Embedder, model string, lg *mylog.Logger) *Pipeline {
	if lg == nil {
		lg = mylog.Discard()
	}
	return &Pipeline{emb: emb, model: model, batch: DefaultBatch, workers: DefaultWorkers, log: lg}
}

// WithBatch sets the number of documents per embedding call.
func (p *Pipeline) WithBatch(n int) *Pipeline {
	if n > 0 {
		p.batch = n
	}
	return p
}

// WithWorkers bounds how many embedding calls run at once.
func (p *Pipeline) WithWorkers(n int) *Pipeline {
	if n > 0 {
		p.workers = n
	}
	return p
}

// Embed returns one vector per movie, in input order. A batch that fails is
// retried one document at a time before the whole run is abandoned.
func (p *Pipeline) Embed(ctx context.Context, movies []models.Movie) ([][]float64, error) {
	out := make([][]float64, len(movies))
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for start := 0; start < len(movies); start += p.batch {
		end := min(start+p.batch, len(movies))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for _, m := range movies[start:end] {
				texts = append(texts, document(m))
			}
			vecs, err := p.embedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed movies %d-%d: %w", start, end-1, err)
			}
			copy(out[start:end], vecs)
			n := done.Add(int64(end - start))
			if p.Progress != nil {
				p.Progress(int(n), len(movies))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	p.log.Info("embedpipe.done", "movies", len(movies), "model", p.model)
	return out, nil
}

func (p *Pipeline) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vecs, err := p.emb.Embeddings(ctx, p.model, texts)
	if err == nil && len(vecs) == len(texts) {
		return vecs, nil
	}
	p.log.Warn("embedpipe.batch_retry", "size", len(texts), "err", err)
	// naive retry per item
	vecs = make([][]float64, len(texts))
	for i, t := range texts {
		v, err := llm.EmbedOne(ctx, p.emb, p.model, t)
		if err != nil {
			return nil, err
		}
		vecs[i] = v
	}
	return vecs, nil
}

func document(m models.Movie) string {
	d := m.Document()
	if len(d) > maxDocChars {
		d = d[:maxDocChars]
	}
	return d
}

// WriteJSON writes vectors as a JSON array of arrays, the format the corpus
// loader reads.
func WriteJSON(w io.Writer, vectors [][]float64) error {
	return json.NewEncoder(w).Encode(vectors)
}
