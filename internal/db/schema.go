package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx pool against the given database URL.
func Connect(url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tags (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id                   BIGSERIAL PRIMARY KEY,
		frontend_id          TEXT NOT NULL DEFAULT '',
		title                TEXT NOT NULL,
		description          TEXT NOT NULL DEFAULT '',
		status               TEXT NOT NULL DEFAULT 'BRAINDUMP',
		column_date          TEXT,
		start_at             TIMESTAMPTZ,
		end_at               TIMESTAMPTZ,
		duration             TEXT NOT NULL DEFAULT '',
		ord                  INTEGER NOT NULL DEFAULT 0,
		completed            BOOLEAN NOT NULL DEFAULT FALSE,
		project_id           BIGINT REFERENCES projects(id) ON DELETE SET NULL,
		recurrence_rule      TEXT,
		recurrence_parent_id BIGINT REFERENCES tasks(id) ON DELETE CASCADE,
		is_rec_parent        BOOLEAN NOT NULL DEFAULT FALSE,
		created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS task_tags (
		task_id BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		tag_id  BIGINT NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
		PRIMARY KEY (task_id, tag_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_column_date ON tasks (column_date)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_rec_parent ON tasks (recurrence_parent_id)`,
}

// Migrate creates the schema if it does not exist yet. Statements are
// idempotent, so running it on every serve start is safe.
func Migrate(pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(context.Background(), stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
