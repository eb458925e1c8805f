package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the workspace tables if they do not exist. IDs are
// client-generated, so none of the keys have defaults.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Tags + ` (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name VARCHAR(255) NOT NULL,
			parent_id TEXT REFERENCES ` + tables.Tags + `(id),
			is_collapsed BOOLEAN NOT NULL DEFAULT false,
			deleted BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS ` + tables.Tags + `_user_idx ON ` + tables.Tags + ` (user_id)`,
		`CREATE INDEX IF NOT EXISTS ` + tables.Tags + `_parent_idx ON ` + tables.Tags + ` (parent_id)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Folders + ` (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			tag_id TEXT NOT NULL REFERENCES ` + tables.Tags + `(id),
			parent_folder_id TEXT REFERENCES ` + tables.Folders + `(id),
			name VARCHAR(255) NOT NULL,
			is_collapsed BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS ` + tables.Folders + `_user_idx ON ` + tables.Folders + ` (user_id)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.Pages + ` (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title VARCHAR(255) NOT NULL,
			kind TEXT NOT NULL DEFAULT 'page' CHECK (kind IN ('page', 'canvas')),
			primary_tag_id TEXT NOT NULL REFERENCES ` + tables.Tags + `(id),
			folder_id TEXT REFERENCES ` + tables.Folders + `(id),
			hierarchy TEXT[] NOT NULL DEFAULT '{}',
			archived BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS ` + tables.Pages + `_user_idx ON ` + tables.Pages + ` (user_id)`,
		`CREATE INDEX IF NOT EXISTS ` + tables.Pages + `_primary_tag_idx ON ` + tables.Pages + ` (primary_tag_id)`,

		`CREATE TABLE IF NOT EXISTS ` + tables.PagesTags + ` (
			page_id TEXT NOT NULL REFERENCES ` + tables.Pages + `(id) ON DELETE CASCADE,
			tag_id TEXT NOT NULL REFERENCES ` + tables.Tags + `(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (page_id, tag_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("run schema: %w", err)
		}
	}
	return nil
}

// DropSchema removes the workspace tables, dependents first.
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.PagesTags, tables.Pages, tables.Folders, tables.Tags} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// ClearUserData deletes one user's workspace rows but keeps the schema.
func ClearUserData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, userID string) error {
	statements := []string{
		`DELETE FROM ` + tables.PagesTags + ` WHERE page_id IN (SELECT id FROM ` + tables.Pages + ` WHERE user_id = $1)`,
		`DELETE FROM ` + tables.Pages + ` WHERE user_id = $1`,
		`DELETE FROM ` + tables.Folders + ` WHERE user_id = $1`,
		`DELETE FROM ` + tables.Tags + ` WHERE user_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt, userID); err != nil {
			return fmt.Errorf("clear user data: %w", err)
		}
	}
	return nil
}
