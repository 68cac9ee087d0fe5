package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/FocuswithJustin/commentariat/core/errors"
	"github.com/FocuswithJustin/commentariat/core/sqlite"
)

// insertBatchSize caps the number of rows per multi-row INSERT.
const insertBatchSize = 1000

const commentaryColumns = "slug, name, description, source, license, language, content_hash, updated_at"

// sqlStore backs the Store interface with a relational database. The same
// statements serve both SQLite and PostgreSQL; rebind rewrites the
// placeholders for the postgres dialect.
type sqlStore struct {
	db      *sql.DB
	dialect string
}

func openSQLite(ctx context.Context, path string) (*sqlStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.NewIO("mkdir", dir, err)
		}
	}
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite database")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, errors.Wrap(err, "configure sqlite database")
		}
	}
	if err := applySchema(ctx, db, sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &sqlStore{db: db, dialect: DriverSQLite}, nil
}

// rebind rewrites ? placeholders to $1..$n for postgres.
func (s *sqlStore) rebind(query string) string {
	if s.dialect != DriverPostgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&sb, "$%d", n)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *sqlStore) BulkLoad(ctx context.Context, c Commentary, entries []Entry, replace bool) (int, error) {
	if c.Slug == "" {
		return 0, errors.NewValidation("slug", "commentary slug is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "begin load transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var existingID int64
	err = tx.QueryRowContext(ctx, s.rebind("SELECT id FROM commentaries WHERE slug = ?"), c.Slug).Scan(&existingID)
	switch {
	case err == nil:
		if !replace {
			return 0, errors.NewConflict("commentary", c.Slug, "already loaded; use replace to overwrite")
		}
	case !errors.Is(err, sql.ErrNoRows):
		return 0, errors.Wrap(err, "look up commentary")
	}

	var id int64
	upsert := `INSERT INTO commentaries (slug, name, description, source, license, language, content_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			source = excluded.source,
			license = excluded.license,
			language = excluded.language,
			content_hash = excluded.content_hash,
			updated_at = excluded.updated_at
		RETURNING id`
	updatedAt := time.Now().UTC().Format(time.RFC3339)
	err = tx.QueryRowContext(ctx, s.rebind(upsert),
		c.Slug, c.Name, c.Description, c.Source, c.License, c.Language, c.ContentHash, updatedAt).Scan(&id)
	if err != nil {
		return 0, errors.Wrap(err, "upsert commentary")
	}

	if _, err := tx.ExecContext(ctx, s.rebind("DELETE FROM entries WHERE commentary_id = ?"), id); err != nil {
		return 0, errors.Wrap(err, "clear entries")
	}

	for start := 0; start < len(entries); start += insertBatchSize {
		chunk := entries[start:min(start+insertBatchSize, len(entries))]
		var sb strings.Builder
		sb.WriteString("INSERT INTO entries (commentary_id, book, chapter, verse_start, verse_end, text) VALUES ")
		args := make([]any, 0, len(chunk)*6)
		for i, e := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?)")
			args = append(args, id, e.Book, e.Chapter, e.Start, e.End, e.Text)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(sb.String()), args...); err != nil {
			return 0, errors.Wrap(err, "insert entries")
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "commit load transaction")
	}
	return len(entries), nil
}

func (s *sqlStore) commentaryID(ctx context.Context, slug string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT id FROM commentaries WHERE slug = ?"), slug).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, errors.NewNotFound("commentary", slug)
	}
	if err != nil {
		return 0, errors.Wrap(err, "look up commentary")
	}
	return id, nil
}

func (s *sqlStore) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "query entries")
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Book, &e.Chapter, &e.Start, &e.End, &e.Text); err != nil {
			return nil, errors.Wrap(err, "scan entry")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read entries")
	}
	return out, nil
}

func (s *sqlStore) QueryChapter(ctx context.Context, slug, book string, chapter int) ([]Entry, error) {
	id, err := s.commentaryID(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.queryEntries(ctx, `SELECT book, chapter, verse_start, verse_end, text FROM entries
		WHERE commentary_id = ? AND book = ? AND chapter = ?
		ORDER BY verse_start, verse_end`, id, book, chapter)
}

func (s *sqlStore) QueryVerse(ctx context.Context, slug, book string, chapter, verse int) ([]Entry, error) {
	id, err := s.commentaryID(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.queryEntries(ctx, `SELECT book, chapter, verse_start, verse_end, text FROM entries
		WHERE commentary_id = ? AND book = ? AND chapter = ? AND verse_start <= ? AND verse_end >= ?
		ORDER BY verse_start, verse_end`, id, book, chapter, verse, verse)
}

func scanCommentary(row interface{ Scan(...any) error }) (Commentary, error) {
	var c Commentary
	var updatedAt string
	err := row.Scan(&c.Slug, &c.Name, &c.Description, &c.Source, &c.License, &c.Language, &c.ContentHash, &updatedAt)
	if err != nil {
		return Commentary{}, err
	}
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return c, nil
}

func (s *sqlStore) ListCommentaries(ctx context.Context) ([]Commentary, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+commentaryColumns+" FROM commentaries ORDER BY slug")
	if err != nil {
		return nil, errors.Wrap(err, "list commentaries")
	}
	defer rows.Close()

	out := []Commentary{}
	for rows.Next() {
		c, err := scanCommentary(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan commentary")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read commentaries")
	}
	return out, nil
}

func (s *sqlStore) GetCommentary(ctx context.Context, ident string) (Commentary, error) {
	row := s.db.QueryRowContext(ctx, s.rebind("SELECT "+commentaryColumns+` FROM commentaries
		WHERE lower(slug) = lower(?) OR lower(name) = lower(?) LIMIT 1`), ident, ident)
	c, err := scanCommentary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Commentary{}, errors.NewNotFound("commentary", ident)
	}
	if err != nil {
		return Commentary{}, errors.Wrap(err, "get commentary")
	}
	return c, nil
}

func (s *sqlStore) RecordRun(ctx context.Context, run IngestRun) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO ingest_runs
		(id, slug, format, inserted, skipped, content_hash, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		run.ID, run.Slug, run.Format, run.Inserted, run.Skipped, run.ContentHash,
		run.StartedAt.UTC().Format(time.RFC3339), run.FinishedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return errors.Wrap(err, "record ingest run")
	}
	return nil
}

func (s *sqlStore) ListRuns(ctx context.Context, slug string) ([]IngestRun, error) {
	query := `SELECT id, slug, format, inserted, skipped, content_hash, started_at, finished_at
		FROM ingest_runs`
	args := []any{}
	if slug != "" {
		query += " WHERE slug = ?"
		args = append(args, slug)
	}
	query += " ORDER BY started_at DESC"

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, errors.Wrap(err, "list ingest runs")
	}
	defer rows.Close()

	out := []IngestRun{}
	for rows.Next() {
		var run IngestRun
		var started, finished string
		if err := rows.Scan(&run.ID, &run.Slug, &run.Format, &run.Inserted, &run.Skipped,
			&run.ContentHash, &started, &finished); err != nil {
			return nil, errors.Wrap(err, "scan ingest run")
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, started)
		run.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "read ingest runs")
	}
	return out, nil
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
