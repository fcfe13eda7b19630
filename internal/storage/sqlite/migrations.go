package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// Manager handles schema versioning of the corpus snapshot database.
type Manager struct{}

const latestVersion = 2

// Open opens (creating if needed) a snapshot database and migrates it to the
// latest schema. modernc's driver serialises writers, so one connection is
// enough.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if err := (Manager{}).UpToLatest(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (m Manager) ensureTable(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER NOT NULL);`)
	if err != nil {
		return err
	}
	// initialize row if empty
	var cnt int
	_ = db.QueryRowContext(ctx, `SELECT COUNT(1) FROM schema_migrations`).Scan(&cnt)
	if cnt == 0 {
		_, err = db.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES(0)`)
	}
	return err
}

// Version reports the applied schema version.
func (m Manager) Version(ctx context.Context, db *sql.DB) (int, error) {
	if err := m.ensureTable(ctx, db); err != nil {
		return 0, err
	}
	var v int
	if err := db.QueryRowContext(ctx, `SELECT version FROM schema_migrations`).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

func (m Manager) setVersion(ctx context.Context, db *sql.DB, v int) error {
	_, err := db.ExecContext(ctx, `UPDATE schema_migrations SET version=?`, v)
	return err
}

// UpToLatest applies migrations to reach latestVersion.
func (m Manager) UpToLatest(ctx context.Context, db *sql.DB) error {
	cur, err := m.Version(ctx, db)
	if err != nil {
		return err
	}
	for v := cur + 1; v <= latestVersion; v++ {
		if err := m.up(ctx, db, v); err != nil {
			return fmt.Errorf("migrate up to v%d: %w", v, err)
		}
		if err := m.setVersion(ctx, db, v); err != nil {
			return err
		}
	}
	return nil
}

// DownOne rolls back the last migration if supported.
func (m Manager) DownOne(ctx context.Context, db *sql.DB) error {
	cur, err := m.Version(ctx, db)
	if err != nil {
		return err
	}
	if cur <= 0 {
		return nil
	}
	if err := m.down(ctx, db, cur); err != nil {
		return err
	}
	return m.setVersion(ctx, db, cur-1)
}

func (m Manager) up(ctx context.Context, db *sql.DB, v int) error {
	var stmts []string
	switch v {
	case 1:
		// movies: one row per CSV record, idx is the corpus position
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS movies (
                idx INTEGER PRIMARY KEY,
                title TEXT NOT NULL,
                original_title TEXT,
                year TEXT,
                date_published TEXT,
                genre TEXT,
                duration TEXT,
                country TEXT,
                language TEXT,
                director TEXT,
                writer TEXT,
                production_company TEXT,
                actors TEXT,
                description TEXT,
                avg_vote TEXT,
                votes TEXT
            );`,
			`CREATE INDEX IF NOT EXISTS idx_movies_title ON movies(title);`,
		}
	case 2:
		// embeddings: vector(json) per movie, aligned by idx
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS embeddings (
                idx INTEGER PRIMARY KEY,
                dim INTEGER NOT NULL,
                vector TEXT NOT NULL,
                model TEXT,
                created_at TEXT NOT NULL,
                FOREIGN KEY(idx) REFERENCES movies(idx)
            );`,
		}
	default:
		return fmt.Errorf("unknown migration version %d", v)
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("v%d step %d: %w", v, i, err)
		}
	}
	return nil
}

func (m Manager) down(ctx context.Context, db *sql.DB, v int) error {
	switch v {
	case 2:
		_, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS embeddings;`)
		return err
	case 1:
		return errors.New("down from v1 not supported")
	default:
		return fmt.Errorf("unknown migration version %d", v)
	}
}
