// Package ingest loads commentary sources into the entry store.
//
// Structural problems (unreadable file, malformed manifest, duplicate
// slug without replace) abort the run. Problems inside individual
// records do not: a bad record is skipped and reported, and the rest of
// the batch still loads.
package ingest

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/commentariat/core/canon"
	"github.com/FocuswithJustin/commentariat/core/errors"
	"github.com/FocuswithJustin/commentariat/core/ref"
	"github.com/FocuswithJustin/commentariat/core/store"
	"github.com/FocuswithJustin/commentariat/internal/logging"
)

// loadMu serializes loads across the process. Concurrent ingests of
// different commentaries are legal at the store level but give confusing
// interleaved logs and run records, so runs queue behind each other.
var loadMu sync.Mutex

// Options controls a single ingestion run.
type Options struct {
	// Replace swaps out an already-loaded commentary. Without it, loading
	// an existing slug is a conflict.
	Replace bool
}

// RecordError describes one skipped record.
type RecordError struct {
	Record int    `json:"record"`
	Reason string `json:"reason"`
}

// Report summarizes a completed run.
type Report struct {
	RunID       string        `json:"run_id"`
	Slug        string        `json:"slug"`
	Format      string        `json:"format"`
	Inserted    int           `json:"inserted"`
	Skipped     int           `json:"skipped"`
	Errors      []RecordError `json:"errors,omitempty"`
	ContentHash string        `json:"content_hash,omitempty"`
	Duration    time.Duration `json:"-"`
}

// flexValue accepts a JSON number or a string holding one. Manifests in
// the wild carry both spellings.
type flexValue string

func (f *flexValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexValue(n.String())
		return nil
	}
	return fmt.Errorf("must be a number or string")
}

func (f flexValue) empty() bool { return strings.TrimSpace(string(f)) == "" }

func (f flexValue) int(field string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(string(f)))
	if err != nil {
		return 0, errors.NewParse(field, string(f), "not a number")
	}
	return n, nil
}

// RawEntry is one record of a commentary source before resolution.
type RawEntry struct {
	Book       string    `json:"book"`
	Chapter    flexValue `json:"chapter"`
	VerseStart flexValue `json:"verse_start"`
	VerseEnd   flexValue `json:"verse_end"`
	Verse      flexValue `json:"verse"`
	Text       string    `json:"text"`
}

// resolve canonicalizes the record into a store entry.
func (e RawEntry) resolve() (store.Entry, error) {
	book, err := canon.Resolve(e.Book)
	if err != nil {
		return store.Entry{}, err
	}
	if e.Chapter.empty() {
		return store.Entry{}, errors.NewValidation("chapter", "chapter is required")
	}
	chapter, err := e.Chapter.int("chapter")
	if err != nil {
		return store.Entry{}, err
	}
	if err := ref.CheckChapter(chapter); err != nil {
		return store.Entry{}, err
	}

	var spec ref.RangeSpec
	if !e.VerseStart.empty() {
		n, err := e.VerseStart.int("verse_start")
		if err != nil {
			return store.Entry{}, err
		}
		spec.VerseStart = &n
	}
	if !e.VerseEnd.empty() {
		n, err := e.VerseEnd.int("verse_end")
		if err != nil {
			return store.Entry{}, err
		}
		spec.VerseEnd = &n
	}
	spec.Verse = string(e.Verse)
	verses, err := ref.ResolveRange(spec)
	if err != nil {
		return store.Entry{}, err
	}

	text := strings.TrimSpace(e.Text)
	if text == "" {
		return store.Entry{}, errors.NewValidation("text", "entry text is required")
	}

	return store.Entry{Book: book.Name, Chapter: chapter, Range: verses, Text: text}, nil
}

// Batch accumulates resolved entries and skipped records for one
// commentary, then commits them as a single load.
type Batch struct {
	meta    Meta
	format  string
	started time.Time
	hasher  *blake3.Hasher
	entries []store.Entry
	errs    []RecordError
	record  int
}

// NewBatch starts an empty batch for the given commentary.
func NewBatch(meta Meta, format string) *Batch {
	return &Batch{
		meta:    meta,
		format:  format,
		started: time.Now().UTC(),
		hasher:  blake3.New(),
	}
}

// HashBytes folds source bytes into the batch content hash.
func (b *Batch) HashBytes(data []byte) {
	b.hasher.Write(data)
}

// AddEntry appends an already-resolved entry.
func (b *Batch) AddEntry(e store.Entry) {
	b.record++
	b.entries = append(b.entries, e)
}

// Skip records the current record as skipped.
func (b *Batch) Skip(reason string) {
	b.record++
	b.errs = append(b.errs, RecordError{Record: b.record, Reason: reason})
}

// Add decodes and resolves one raw record, skipping it on failure.
func (b *Batch) Add(raw json.RawMessage) {
	var e RawEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		b.Skip("invalid record: " + err.Error())
		return
	}
	resolved, err := e.resolve()
	if err != nil {
		b.Skip(err.Error())
		return
	}
	b.AddEntry(resolved)
}

// Len returns the number of entries queued for loading.
func (b *Batch) Len() int { return len(b.entries) }

// Commit loads the batch into the store and records the run.
func (b *Batch) Commit(ctx context.Context, s store.Store, opts Options) (*Report, error) {
	loadMu.Lock()
	defer loadMu.Unlock()

	hash := hex.EncodeToString(b.hasher.Sum(nil))
	c := store.Commentary{
		Slug:        b.meta.Slug,
		Name:        b.meta.Name,
		Description: b.meta.Description,
		Source:      b.meta.Source,
		License:     b.meta.License,
		Language:    b.meta.Language,
		ContentHash: hash,
	}
	inserted, err := s.BulkLoad(ctx, c, b.entries, opts.Replace)
	if err != nil {
		return nil, err
	}

	finished := time.Now().UTC()
	report := &Report{
		RunID:       uuid.NewString(),
		Slug:        c.Slug,
		Format:      b.format,
		Inserted:    inserted,
		Skipped:     len(b.errs),
		Errors:      b.errs,
		ContentHash: hash,
		Duration:    finished.Sub(b.started),
	}
	run := store.IngestRun{
		ID:          report.RunID,
		Slug:        report.Slug,
		Format:      report.Format,
		Inserted:    report.Inserted,
		Skipped:     report.Skipped,
		ContentHash: hash,
		StartedAt:   b.started,
		FinishedAt:  finished,
	}
	if err := s.RecordRun(ctx, run); err != nil {
		return nil, err
	}

	logging.IngestEvent("complete", report.Slug, report.Format,
		"run_id", report.RunID,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"duration_ms", report.Duration.Milliseconds())
	return report, nil
}

// JSON ingests a manifest file with inline or sidecar entries.
func JSON(ctx context.Context, s store.Store, path string, opts Options) (*Report, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}

	logging.IngestEvent("start", m.Commentary.Slug, "json", "path", path)

	b := NewBatch(m.Commentary, "json")
	b.HashBytes(m.raw)

	if m.EntriesFile != "" {
		r, err := openEntries(m.EntriesPath())
		if err != nil {
			return nil, err
		}
		defer r.Close()
		for {
			raw, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			b.HashBytes(raw)
			b.Add(raw)
		}
	} else {
		for _, raw := range m.Entries {
			b.Add(raw)
		}
	}

	return b.Commit(ctx, s, opts)
}
