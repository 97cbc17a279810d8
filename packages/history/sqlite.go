package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRepository stores runs in a SQLite file
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	repo := &SQLiteRepository{db: db}
	if err := repo.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history tables: %w", err)
	}

	return repo, nil
}

func (r *SQLiteRepository) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		base_url TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		run INTEGER NOT NULL,
		passed INTEGER NOT NULL,
		aborted BOOLEAN NOT NULL DEFAULT 0,
		aborted_step TEXT NOT NULL DEFAULT '',
		cases_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_base_url ON runs(base_url);
	CREATE INDEX IF NOT EXISTS idx_runs_finished_at ON runs(finished_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

func (r *SQLiteRepository) Save(ctx context.Context, rec *Record) error {
	casesJSON, err := encodeCases(rec.Cases)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO runs (id, base_url, started_at, finished_at, run, passed, aborted, aborted_step, cases_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.BaseURL,
		rec.StartedAt.UTC(),
		rec.FinishedAt.UTC(),
		rec.Run,
		rec.Passed,
		rec.Aborted,
		rec.AbortedStep,
		casesJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", rec.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]Record, error) {
	query := `SELECT ` + selectColumns + ` FROM runs ORDER BY finished_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Record, error) {
	query := `SELECT ` + selectColumns + ` FROM runs WHERE id = ?`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return rec, err
}

func (r *SQLiteRepository) Stats(ctx context.Context, baseURL string) (*Stats, error) {
	query := `
		SELECT
			COUNT(*) as total,
			SUM(CASE WHEN passed = run AND aborted = 0 THEN 1 ELSE 0 END) as successful,
			SUM(CASE WHEN aborted = 1 THEN 1 ELSE 0 END) as aborted,
			AVG(CASE WHEN run > 0 THEN passed * 100.0 / run END) as pass_rate
		FROM runs
		WHERE base_url = ?
	`

	return scanStats(r.db.QueryRowContext(ctx, query, baseURL))
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
