package store

import (
	"context"
	"database/sql"

	"github.com/FocuswithJustin/commentariat/core/errors"
)

// Schema statements are applied one at a time; the pgx driver does not
// accept multi-statement commands over the extended protocol.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS commentaries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		license TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		commentary_id INTEGER NOT NULL REFERENCES commentaries(id) ON DELETE CASCADE,
		book TEXT NOT NULL,
		chapter INTEGER NOT NULL,
		verse_start INTEGER NOT NULL,
		verse_end INTEGER NOT NULL,
		text TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_lookup
		ON entries (commentary_id, book, chapter, verse_start, verse_end)`,
	`CREATE TABLE IF NOT EXISTS ingest_runs (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		format TEXT NOT NULL,
		inserted INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		content_hash TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ingest_runs_slug ON ingest_runs (slug)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS commentaries (
		id BIGSERIAL PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		license TEXT NOT NULL DEFAULT '',
		language TEXT NOT NULL DEFAULT '',
		content_hash TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS entries (
		id BIGSERIAL PRIMARY KEY,
		commentary_id BIGINT NOT NULL REFERENCES commentaries(id) ON DELETE CASCADE,
		book TEXT NOT NULL,
		chapter INTEGER NOT NULL,
		verse_start INTEGER NOT NULL,
		verse_end INTEGER NOT NULL,
		text TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_entries_lookup
		ON entries (commentary_id, book, chapter, verse_start, verse_end)`,
	`CREATE TABLE IF NOT EXISTS ingest_runs (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL,
		format TEXT NOT NULL,
		inserted INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		content_hash TEXT NOT NULL DEFAULT '',
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ingest_runs_slug ON ingest_runs (slug)`,
}

func applySchema(ctx context.Context, db *sql.DB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "apply schema")
		}
	}
	return nil
}
