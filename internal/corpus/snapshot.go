package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"movieqa/internal/models"
)

const movieCols = `idx, title, original_title, year, date_published, genre, duration, country,
	language, director, writer, production_company, actors, description, avg_vote, votes`

// WriteSnapshot replaces the contents of a migrated snapshot database with c.
// model records which embedding model produced the vectors and may be empty.
func WriteSnapshot(ctx context.Context, db *sql.DB, c *Corpus, model string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM embeddings`); err != nil {
		return fmt.Errorf("snapshot clear embeddings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM movies`); err != nil {
		return fmt.Errorf("snapshot clear movies: %w", err)
	}
	movStmt, err := tx.PrepareContext(ctx, `INSERT INTO movies(`+movieCols+`) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer movStmt.Close()
	embStmt, err := tx.PrepareContext(ctx, `INSERT INTO embeddings(idx, dim, vector, model, created_at) VALUES(?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer embStmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for i, m := range c.Movies() {
		args := make([]any, 0, 16)
		args = append(args, i)
		for _, v := range m.Fields() {
			args = append(args, v)
		}
		if _, err := movStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("snapshot movie %d: %w", i, err)
		}
		vec, err := json.Marshal(c.vectors[i])
		if err != nil {
			return err
		}
		if _, err := embStmt.ExecContext(ctx, i, c.dim, string(vec), model, now); err != nil {
			return fmt.Errorf("snapshot vector %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// ReadSnapshot rebuilds a Corpus from a snapshot database, ordered by index.
func ReadSnapshot(ctx context.Context, db *sql.DB) (*Corpus, error) {
	rows, err := db.QueryContext(ctx, `SELECT m.idx, m.title, m.original_title, m.year, m.date_published,
		m.genre, m.duration, m.country, m.language, m.director, m.writer, m.production_company,
		m.actors, m.description, m.avg_vote, m.votes, e.vector
		FROM movies m JOIN embeddings e ON e.idx = m.idx ORDER BY m.idx`)
	if err != nil {
		return nil, &ResourceError{Resource: "snapshot", Location: "sqlite", Err: err}
	}
	defer rows.Close()

	var (
		movies  []models.Movie
		vectors [][]float64
	)
	for rows.Next() {
		var (
			idx int
			m   models.Movie
			raw string
		)
		if err := rows.Scan(&idx, &m.Title, &m.OriginalTitle, &m.Year, &m.DatePublished,
			&m.Genre, &m.Duration, &m.Country, &m.Language, &m.Director, &m.Writer,
			&m.ProductionCompany, &m.Actors, &m.Description, &m.AvgVote, &m.Votes, &raw); err != nil {
			return nil, err
		}
		if idx != len(movies) {
			return nil, fmt.Errorf("%w: snapshot gap at index %d", ErrMisaligned, len(movies))
		}
		var v []float64
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("snapshot vector %d: %w", idx, err)
		}
		movies = append(movies, m)
		vectors = append(vectors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return New(movies, vectors)
}
