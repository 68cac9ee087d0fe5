package store

import (
	"context"
	"testing"
	"time"

	"github.com/FocuswithJustin/commentariat/core/errors"
	"github.com/FocuswithJustin/commentariat/core/ref"
)

func entry(book string, chapter, start, end int, text string) Entry {
	return Entry{Book: book, Chapter: chapter, Range: ref.Range{Start: start, End: end}, Text: text}
}

func henry() Commentary {
	return Commentary{
		Slug:     "matthew-henry",
		Name:     "Matthew Henry's Commentary",
		Source:   "project-gutenberg",
		License:  "public-domain",
		Language: "en",
	}
}

func mustLoad(t *testing.T, s Store, c Commentary, entries []Entry, replace bool) int {
	t.Helper()
	n, err := s.BulkLoad(context.Background(), c, entries, replace)
	if err != nil {
		t.Fatalf("BulkLoad(%s) error = %v", c.Slug, err)
	}
	return n
}

// runStoreTests exercises the Store contract against a backend. Every
// subtest gets a fresh store from open.
func runStoreTests(t *testing.T, open func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("ChapterOrdering", func(t *testing.T) {
		s := open(t)
		n := mustLoad(t, s, henry(), []Entry{
			entry("John", 3, 16, 17, "the love of God in giving his Son"),
			entry("John", 3, 1, 21, "the discourse with Nicodemus"),
			entry("John", 3, 16, 16, "the gospel in miniature"),
			entry("John", 4, 1, 26, "the woman of Samaria"),
			entry("Genesis", 3, 1, 24, "the temptation and fall"),
		}, false)
		if n != 5 {
			t.Errorf("BulkLoad() = %d, want 5", n)
		}

		got, err := s.QueryChapter(ctx, "matthew-henry", "John", 3)
		if err != nil {
			t.Fatalf("QueryChapter() error = %v", err)
		}
		want := []ref.Range{{Start: 1, End: 21}, {Start: 16, End: 16}, {Start: 16, End: 17}}
		if len(got) != len(want) {
			t.Fatalf("QueryChapter() returned %d entries, want %d", len(got), len(want))
		}
		for i, e := range got {
			if e.Range != want[i] {
				t.Errorf("entry %d range = %v, want %v", i, e.Range, want[i])
			}
		}
	})

	t.Run("VerseOverlap", func(t *testing.T) {
		s := open(t)
		mustLoad(t, s, henry(), []Entry{
			entry("John", 3, 1, 5, "new birth"),
			entry("John", 3, 3, 3, "except a man be born again"),
			entry("John", 3, 15, 18, "belief and everlasting life"),
			entry("John", 3, 16, 16, "the gospel in miniature"),
		}, false)

		tests := []struct {
			verse int
			want  []ref.Range
		}{
			{16, []ref.Range{{Start: 15, End: 18}, {Start: 16, End: 16}}},
			{3, []ref.Range{{Start: 1, End: 5}, {Start: 3, End: 3}}},
			{5, []ref.Range{{Start: 1, End: 5}}},
			{10, nil},
		}
		for _, tt := range tests {
			got, err := s.QueryVerse(ctx, "matthew-henry", "John", 3, tt.verse)
			if err != nil {
				t.Fatalf("QueryVerse(%d) error = %v", tt.verse, err)
			}
			if len(got) != len(tt.want) {
				t.Errorf("QueryVerse(%d) returned %d entries, want %d", tt.verse, len(got), len(tt.want))
				continue
			}
			for i, e := range got {
				if e.Range != tt.want[i] {
					t.Errorf("QueryVerse(%d) entry %d = %v, want %v", tt.verse, i, e.Range, tt.want[i])
				}
			}
		}
	})

	t.Run("EmptyChapterIsNotAnError", func(t *testing.T) {
		s := open(t)
		mustLoad(t, s, henry(), []Entry{entry("John", 3, 16, 16, "text")}, false)

		got, err := s.QueryChapter(ctx, "matthew-henry", "John", 4)
		if err != nil {
			t.Fatalf("QueryChapter() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("QueryChapter() returned %d entries, want 0", len(got))
		}
	})

	t.Run("UnknownCommentary", func(t *testing.T) {
		s := open(t)
		if _, err := s.QueryChapter(ctx, "nope", "John", 3); !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("QueryChapter() error = %v, want ErrNotFound", err)
		}
		if _, err := s.QueryVerse(ctx, "nope", "John", 3, 16); !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("QueryVerse() error = %v, want ErrNotFound", err)
		}
		if _, err := s.GetCommentary(ctx, "nope"); !errors.Is(err, errors.ErrNotFound) {
			t.Errorf("GetCommentary() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("Replace", func(t *testing.T) {
		s := open(t)
		mustLoad(t, s, henry(), []Entry{
			entry("John", 3, 16, 16, "first version"),
			entry("John", 3, 17, 17, "first version"),
		}, false)

		revised := henry()
		revised.Name = "Matthew Henry's Commentary (revised)"
		n := mustLoad(t, s, revised, []Entry{entry("Genesis", 1, 1, 1, "second version")}, true)
		if n != 1 {
			t.Errorf("BulkLoad(replace) = %d, want 1", n)
		}

		old, err := s.QueryChapter(ctx, "matthew-henry", "John", 3)
		if err != nil {
			t.Fatalf("QueryChapter() error = %v", err)
		}
		if len(old) != 0 {
			t.Errorf("old entries still present after replace: %d", len(old))
		}
		got, err := s.QueryChapter(ctx, "matthew-henry", "Genesis", 1)
		if err != nil {
			t.Fatalf("QueryChapter() error = %v", err)
		}
		if len(got) != 1 || got[0].Text != "second version" {
			t.Errorf("QueryChapter() after replace = %+v", got)
		}
		c, err := s.GetCommentary(ctx, "matthew-henry")
		if err != nil {
			t.Fatalf("GetCommentary() error = %v", err)
		}
		if c.Name != revised.Name {
			t.Errorf("Name = %q, want %q", c.Name, revised.Name)
		}
	})

	t.Run("ConflictLeavesStoreUntouched", func(t *testing.T) {
		s := open(t)
		mustLoad(t, s, henry(), []Entry{
			entry("John", 3, 16, 16, "original"),
			entry("John", 3, 17, 17, "original"),
		}, false)

		_, err := s.BulkLoad(ctx, henry(), []Entry{entry("John", 3, 18, 18, "intruder")}, false)
		if !errors.Is(err, errors.ErrAlreadyExists) {
			t.Fatalf("BulkLoad() error = %v, want ErrAlreadyExists", err)
		}

		got, err := s.QueryChapter(ctx, "matthew-henry", "John", 3)
		if err != nil {
			t.Fatalf("QueryChapter() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("QueryChapter() returned %d entries, want the original 2", len(got))
		}
		for _, e := range got {
			if e.Text != "original" {
				t.Errorf("entry text = %q, want %q", e.Text, "original")
			}
		}
	})

	t.Run("GetCommentaryBySlugOrName", func(t *testing.T) {
		s := open(t)
		mustLoad(t, s, henry(), nil, false)

		for _, ident := range []string{"matthew-henry", "Matthew-Henry", "Matthew Henry's Commentary", "MATTHEW HENRY'S COMMENTARY"} {
			c, err := s.GetCommentary(ctx, ident)
			if err != nil {
				t.Errorf("GetCommentary(%q) error = %v", ident, err)
				continue
			}
			if c.Slug != "matthew-henry" {
				t.Errorf("GetCommentary(%q).Slug = %q, want %q", ident, c.Slug, "matthew-henry")
			}
		}
	})

	t.Run("ListCommentaries", func(t *testing.T) {
		s := open(t)
		mustLoad(t, s, Commentary{Slug: "tsk", Name: "Treasury of Scripture Knowledge"}, nil, false)
		mustLoad(t, s, Commentary{Slug: "barnes", Name: "Barnes' Notes"}, nil, false)

		got, err := s.ListCommentaries(ctx)
		if err != nil {
			t.Fatalf("ListCommentaries() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("ListCommentaries() returned %d, want 2", len(got))
		}
		if got[0].Slug != "barnes" || got[1].Slug != "tsk" {
			t.Errorf("ListCommentaries() order = %q, %q; want barnes, tsk", got[0].Slug, got[1].Slug)
		}
		if got[0].UpdatedAt.IsZero() {
			t.Error("UpdatedAt not set by BulkLoad")
		}
	})

	t.Run("IngestRuns", func(t *testing.T) {
		s := open(t)
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		runs := []IngestRun{
			{ID: "run-1", Slug: "matthew-henry", Format: "json", Inserted: 10, Skipped: 1, StartedAt: base, FinishedAt: base.Add(time.Second)},
			{ID: "run-2", Slug: "matthew-henry", Format: "json", Inserted: 12, Skipped: 0, StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Second)},
			{ID: "run-3", Slug: "tsk", Format: "sword", Inserted: 3, Skipped: 0, StartedAt: base.Add(2 * time.Hour), FinishedAt: base.Add(2*time.Hour + time.Second)},
		}
		for _, run := range runs {
			if err := s.RecordRun(ctx, run); err != nil {
				t.Fatalf("RecordRun(%s) error = %v", run.ID, err)
			}
		}

		got, err := s.ListRuns(ctx, "matthew-henry")
		if err != nil {
			t.Fatalf("ListRuns() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("ListRuns() returned %d, want 2", len(got))
		}
		if got[0].ID != "run-2" || got[1].ID != "run-1" {
			t.Errorf("ListRuns() order = %q, %q; want run-2, run-1", got[0].ID, got[1].ID)
		}

		all, err := s.ListRuns(ctx, "")
		if err != nil {
			t.Fatalf("ListRuns(all) error = %v", err)
		}
		if len(all) != 3 {
			t.Errorf("ListRuns(all) returned %d, want 3", len(all))
		}
	})

	t.Run("Ping", func(t *testing.T) {
		s := open(t)
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})
}
