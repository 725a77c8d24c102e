package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RunSchema creates tables and indexes if they don't exist
func RunSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Actors + ` (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL DEFAULT '',
			is_admin BOOLEAN NOT NULL DEFAULT FALSE,
			is_moderator BOOLEAN NOT NULL DEFAULT FALSE,
			bio TEXT NOT NULL DEFAULT '',
			edit_count INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id UUID PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			slug TEXT NOT NULL CONSTRAINT ` + tables.DocumentSlugConstraint() + ` UNIQUE,
			body TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_by TEXT NOT NULL,
			view_count BIGINT NOT NULL DEFAULT 0,
			protected BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		// Revisions reference their document without ON DELETE CASCADE: the
		// engine deletes them explicitly inside the delete transaction.
		`CREATE TABLE IF NOT EXISTS ` + tables.Revisions + ` (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id),
			revision_number INTEGER NOT NULL CHECK (revision_number > 0),
			title VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			edit_summary TEXT NOT NULL,
			created_by TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			approved BOOLEAN NOT NULL DEFAULT FALSE,
			approved_by TEXT,
			approved_at TIMESTAMPTZ,
			UNIQUE(document_id, revision_number)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.PendingChanges + ` (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id),
			revision_id UUID NOT NULL REFERENCES ` + tables.Revisions + `(id),
			status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
			reviewed_by TEXT,
			reviewed_at TIMESTAMPTZ,
			review_comment TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Categories + ` (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.DocumentCategories + ` (
			category_id UUID NOT NULL REFERENCES ` + tables.Categories + `(id) ON DELETE CASCADE,
			document_id UUID NOT NULL REFERENCES ` + tables.Documents + `(id) ON DELETE CASCADE,
			PRIMARY KEY (category_id, document_id)
		)`,
	}

	for _, statement := range statements {
		if _, err := pool.Exec(ctx, statement); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	indexes := []string{
		// At most one unresolved review per revision
		`CREATE UNIQUE INDEX IF NOT EXISTS ` + tables.PendingChanges + `_pending_revision_idx ON ` + tables.PendingChanges + `(revision_id) WHERE status = 'pending'`,
		`CREATE INDEX IF NOT EXISTS ` + tables.PendingChanges + `_status_created_idx ON ` + tables.PendingChanges + `(status, created_at)`,
		`CREATE INDEX IF NOT EXISTS ` + tables.Revisions + `_created_idx ON ` + tables.Revisions + `(created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS ` + tables.DocumentCategories + `_document_idx ON ` + tables.DocumentCategories + `(document_id)`,
	}

	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

// DropAllTables drops all tables in reverse order (to respect foreign keys)
func DropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	all := tables.All()
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+all[i]+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", all[i], err)
		}
	}
	return nil
}
