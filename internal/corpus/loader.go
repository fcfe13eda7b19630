package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	mylog "movieqa/internal/log"
)

// Options locate the two resources behind a Fetcher.
type Options struct {
	CSVPath        string
	EmbeddingsPath string
	Strict         bool
}

// Loader produces a Corpus once and hands the same pointer to every later
// caller. A failed load is not cached, so the next call tries again.
type Loader struct {
	load  func(ctx context.Context) (*Corpus, error)
	log   *mylog.Logger
	group singleflight.Group

	mu     sync.Mutex
	cached *Corpus
}

// NewLoader loads the CSV and the embeddings JSON through f.
func NewLoader(f Fetcher, opts Options, lg *mylog.Logger) *Loader {
	if lg == nil {
		lg = mylog.Discard()
	}
	l := &Loader{log: lg}
	l.load = func(ctx context.Context) (*Corpus, error) { return fetchAndParse(ctx, f, opts) }
	return l
}

// NewSnapshotLoader loads from a SQLite snapshot written by WriteSnapshot.
func NewSnapshotLoader(db *sql.DB, lg *mylog.Logger) *Loader {
	if lg == nil {
		lg = mylog.Discard()
	}
	l := &Loader{log: lg}
	l.load = func(ctx context.Context) (*Corpus, error) { return ReadSnapshot(ctx, db) }
	return l
}

// Load returns the cached corpus, loading it on first use. Concurrent first
// calls share a single load, which runs detached from any one caller's
// context: a caller that gives up gets its own ctx.Err() while the others
// keep waiting.
func (l *Loader) Load(ctx context.Context) (*Corpus, error) {
	if c, ok := l.Cached(); ok {
		return c, nil
	}
	shared := context.WithoutCancel(ctx)
	ch := l.group.DoChan("corpus", func() (any, error) {
		if c, ok := l.Cached(); ok {
			return c, nil
		}
		start := time.Now()
		c, err := l.load(shared)
		if err != nil {
			l.log.Error("corpus.load", "err", err)
			return nil, err
		}
		l.mu.Lock()
		l.cached = c
		l.mu.Unlock()
		l.log.Info("corpus.load", "movies", c.Len(), "dim", c.Dim(), "duration_ms", time.Since(start).Milliseconds())
		return c, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Corpus), nil
	}
}

// Cached reports the corpus if a load has already succeeded.
func (l *Loader) Cached() (*Corpus, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cached, l.cached != nil
}

// Size is the number of loaded movies, if a load has succeeded.
func (l *Loader) Size() (int, bool) {
	c, ok := l.Cached()
	if !ok {
		return 0, false
	}
	return c.Len(), true
}

func fetchAndParse(ctx context.Context, f Fetcher, opts Options) (*Corpus, error) {
	csvLoc := f.Location(opts.CSVPath)
	embLoc := f.Location(opts.EmbeddingsPath)

	// Both fetches run to completion so a CSV failure is always reported
	// ahead of an embeddings failure.
	var (
		g                errgroup.Group
		csvData, embData []byte
		csvErr, embErr   error
	)
	g.Go(func() error {
		csvData, csvErr = f.Fetch(ctx, opts.CSVPath)
		return nil
	})
	g.Go(func() error {
		embData, embErr = f.Fetch(ctx, opts.EmbeddingsPath)
		return nil
	})
	_ = g.Wait()
	if csvErr != nil {
		return nil, csvError(csvLoc, csvErr)
	}
	if embErr != nil {
		return nil, embeddingsError(embLoc, embErr)
	}

	movies, err := ParseCSV(csvData, opts.Strict)
	if err != nil {
		return nil, csvError(csvLoc, err)
	}
	var vectors [][]float64
	if err := json.Unmarshal(embData, &vectors); err != nil {
		return nil, embeddingsError(embLoc, err)
	}
	c, err := New(movies, vectors)
	if err != nil {
		return nil, &ResourceError{Resource: "corpus", Location: csvLoc + " + " + embLoc, Err: err}
	}
	return c, nil
}
