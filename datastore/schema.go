package datastore

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the flipbook/page/widget tables. Deletes cascade
// from flipbooks to pages to widgets. The widget seq column preserves
// insertion order for z-index tie-breaking.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS flipbooks (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		pdf_path    TEXT NOT NULL,
		style_json  TEXT NOT NULL DEFAULT '{}',
		share_token TEXT NOT NULL UNIQUE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pages (
		id          TEXT PRIMARY KEY,
		flipbook_id TEXT NOT NULL REFERENCES flipbooks(id) ON DELETE CASCADE,
		page_num    INTEGER NOT NULL,
		image_path  TEXT NOT NULL,
		width       INTEGER NOT NULL,
		height      INTEGER NOT NULL,
		UNIQUE (flipbook_id, page_num)
	)`,
	`CREATE TABLE IF NOT EXISTS widgets (
		id            TEXT PRIMARY KEY,
		page_id       TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
		seq           BIGSERIAL,
		type          TEXT NOT NULL,
		props_json    TEXT NOT NULL DEFAULT '{}',
		geometry_json TEXT NOT NULL DEFAULT '{}',
		z_index       INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pages_flipbook ON pages (flipbook_id)`,
	`CREATE INDEX IF NOT EXISTS idx_widgets_page ON widgets (page_id)`,
}

// EnsureSchema creates the tables if they do not exist. Callers treat a
// failure as a warning, not a startup abort: an existing but incompatible
// schema requires a manual migration, not an automated repair.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema bootstrap failed: %w", err)
		}
	}
	return nil
}
