package vectorstore

import (
	"context"
	"database/sql"
	"time"

	"movieqa/internal/config"
	"movieqa/internal/corpus"
	mylog "movieqa/internal/log"
	"movieqa/internal/storage/sqlite"
)

// Backing bundles the store chosen by configuration with the loader that
// feeds it. DB is nil unless a snapshot is in use.
type Backing struct {
	Store  VectorStore
	Loader *corpus.Loader
	DB     *sql.DB
}

func (b *Backing) Close() error {
	if b.DB != nil {
		return b.DB.Close()
	}
	return nil
}

// NewFromConfig searches the snapshot named by CORPUS_SNAPSHOT when set, and
// otherwise the CSV and embeddings fetched below NEXT_PUBLIC_BASE_URL.
func NewFromConfig(ctx context.Context, cfg config.CorpusConfig, fetchTimeout time.Duration, lg *mylog.Logger) (*Backing, error) {
	if cfg.Snapshot != "" {
		db, err := sqlite.Open(ctx, cfg.Snapshot)
		if err != nil {
			return nil, err
		}
		return &Backing{Store: NewSQLite(db), Loader: corpus.NewSnapshotLoader(db, lg), DB: db}, nil
	}
	l := corpus.NewLoader(corpus.NewFetcher(cfg.Base, fetchTimeout), corpus.Options{
		CSVPath:        cfg.CSVPath,
		EmbeddingsPath: cfg.EmbeddingsPath,
		Strict:         cfg.Strict,
	}, lg)
	return &Backing{Store: NewMemory(l), Loader: l}, nil
}
