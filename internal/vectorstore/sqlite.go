package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"movieqa/internal/models"
	"movieqa/internal/rag/similarity"
)

// SQLite searches a corpus snapshot in place, without building a Corpus.
type SQLite struct {
	db *sql.DB
}

// NewSQLite returns a store backed by a migrated snapshot database.
func NewSQLite(db *sql.DB) *SQLite { return &SQLite{db: db} }

func (s *SQLite) Search(ctx context.Context, query []float64, k int) ([]models.SearchResult, error) {
	if len(query) == 0 {
		return nil, similarity.ErrEmptyVector
	}
	// Filter by dimension to avoid mixing models with different dims.
	rows, err := s.db.QueryContext(ctx, `SELECT idx, vector FROM embeddings WHERE dim=? ORDER BY idx`, len(query))
	if err != nil {
		return nil, err
	}
	var (
		ids     []int
		vectors [][]float64
	)
	for rows.Next() {
		var (
			idx    int
			vecStr string
		)
		if err := rows.Scan(&idx, &vecStr); err != nil {
			rows.Close()
			return nil, err
		}
		var vec []float64
		if err := json.Unmarshal([]byte(vecStr), &vec); err != nil || len(vec) != len(query) {
			continue
		}
		ids = append(ids, idx)
		vectors = append(vectors, vec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("search: %w: no %d-dimensional vectors in snapshot", similarity.ErrDimensionMismatch, len(query))
	}

	scored, err := similarity.TopK(query, vectors, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out := make([]models.SearchResult, 0, len(scored))
	for _, sc := range scored {
		m, err := s.movie(ctx, ids[sc.Index])
		if err != nil {
			return nil, err
		}
		out = append(out, models.SearchResult{Index: ids[sc.Index], Score: sc.Score, Movie: m})
	}
	return out, nil
}

func (s *SQLite) movie(ctx context.Context, idx int) (models.Movie, error) {
	var m models.Movie
	err := s.db.QueryRowContext(ctx, `SELECT title, original_title, year, date_published, genre, duration,
		country, language, director, writer, production_company, actors, description, avg_vote, votes
		FROM movies WHERE idx=?`, idx).Scan(&m.Title, &m.OriginalTitle, &m.Year, &m.DatePublished,
		&m.Genre, &m.Duration, &m.Country, &m.Language, &m.Director, &m.Writer,
		&m.ProductionCompany, &m.Actors, &m.Description, &m.AvgVote, &m.Votes)
	if err != nil {
		return m, fmt.Errorf("movie %d: %w", idx, err)
	}
	return m, nil
}
