// Package store holds commentary metadata and verse-ranged entries, and
// answers range-overlap queries against them.
//
// Three backends implement the same Store contract: an in-memory index, a
// SQLite database and a PostgreSQL database. Entries are immutable once
// loaded; the only write operations are a bulk load per commentary and the
// ingest-run audit append.
package store

import (
	"context"
	"time"

	"github.com/FocuswithJustin/commentariat/core/ref"
)

// Commentary is the metadata block of one commentary source.
type Commentary struct {
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source,omitempty"`
	License     string    `json:"license,omitempty"`
	Language    string    `json:"language,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// Entry is one commentary excerpt tied to a book, chapter and verse range.
type Entry struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	ref.Range
	Text string `json:"text"`
}

// IngestRun is the audit record of one completed ingestion.
type IngestRun struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Format      string    `json:"format"`
	Inserted    int       `json:"inserted"`
	Skipped     int       `json:"skipped"`
	ContentHash string    `json:"content_hash,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Store is the contract shared by all backends.
//
// BulkLoad writes the commentary metadata and its full entry set in one
// atomic unit and returns the number of entries inserted. In replace mode
// any existing entries for the slug are discarded first; prior data survives
// intact if the load fails partway. Outside replace mode an already-present
// slug is a conflict and nothing is written.
//
// QueryChapter and QueryVerse return entries ordered by verse_start
// ascending, ties broken by verse_end ascending. An empty result is not an
// error. QueryVerse filters to entries whose range contains the verse.
//
// GetCommentary accepts a slug or a display name, case-insensitively.
type Store interface {
	BulkLoad(ctx context.Context, c Commentary, entries []Entry, replace bool) (int, error)
	QueryChapter(ctx context.Context, slug, book string, chapter int) ([]Entry, error)
	QueryVerse(ctx context.Context, slug, book string, chapter, verse int) ([]Entry, error)
	ListCommentaries(ctx context.Context) ([]Commentary, error)
	GetCommentary(ctx context.Context, ident string) (Commentary, error)
	RecordRun(ctx context.Context, run IngestRun) error
	ListRuns(ctx context.Context, slug string) ([]IngestRun, error)
	Ping(ctx context.Context) error
	Close() error
}
