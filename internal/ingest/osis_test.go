package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/FocuswithJustin/commentariat/core/errors"
	"github.com/FocuswithJustin/commentariat/core/store"
)

const osisDoc = `<?xml version="1.0" encoding="UTF-8"?>
<osis xmlns="http://www.bibletechnologies.net/2003/OSIS/namespace">
  <osisText osisIDWork="MHCC" xml:lang="en">
    <header>
      <work osisWork="MHCC">
        <title>Matthew Henry's Concise Commentary</title>
      </work>
    </header>
    <div type="book" osisID="John">
      <chapter osisID="John.3">
        <div type="commentary" annotateRef="John.3.16">For God so loved the world.</div>
        <note annotateRef="John.3.16-John.3.18">Belief and everlasting life.</note>
        <div type="commentary" annotateRef="John.3">Chapter-scope text has no verse anchor.</div>
        <note annotateRef="John.3.19 John.3.21">Light and darkness.</note>
      </chapter>
    </div>
  </osisText>
</osis>`

func TestOSIS(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	path := writeFile(t, t.TempDir(), "mhcc.osis.xml", []byte(osisDoc))

	report, err := OSIS(ctx, s, path, Meta{}, Options{})
	if err != nil {
		t.Fatalf("OSIS() error = %v", err)
	}

	if report.Slug != "mhcc" {
		t.Errorf("Slug = %q, want %q (from osisIDWork)", report.Slug, "mhcc")
	}
	if report.Inserted != 4 {
		t.Errorf("Inserted = %d, want 4", report.Inserted)
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0].Reason, "John.3") {
		t.Errorf("Errors = %+v, want one chapter-scope skip", report.Errors)
	}

	c, err := s.GetCommentary(ctx, "mhcc")
	if err != nil {
		t.Fatalf("GetCommentary() error = %v", err)
	}
	if c.Name != "Matthew Henry's Concise Commentary" {
		t.Errorf("Name = %q, want header title", c.Name)
	}

	got, err := s.QueryChapter(ctx, "mhcc", "John", 3)
	if err != nil {
		t.Fatalf("QueryChapter() error = %v", err)
	}
	wantRanges := []struct{ start, end int }{{16, 16}, {16, 18}, {19, 19}, {21, 21}}
	if len(got) != len(wantRanges) {
		t.Fatalf("QueryChapter() returned %d entries, want %d", len(got), len(wantRanges))
	}
	for i, want := range wantRanges {
		if got[i].Start != want.start || got[i].End != want.end {
			t.Errorf("entry %d range = %v, want %d-%d", i, got[i].Range, want.start, want.end)
		}
	}
	// The multi-ref note attaches the same text to both anchors
	if got[2].Text != got[3].Text {
		t.Errorf("multi-ref texts differ: %q vs %q", got[2].Text, got[3].Text)
	}
}

func TestOSISExplicitMetaWins(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	path := writeFile(t, t.TempDir(), "mhcc.osis.xml", []byte(osisDoc))

	meta := Meta{Slug: "henry-concise", Name: "Henry (Concise)"}
	report, err := OSIS(ctx, s, path, meta, Options{})
	if err != nil {
		t.Fatalf("OSIS() error = %v", err)
	}
	if report.Slug != "henry-concise" {
		t.Errorf("Slug = %q, want %q", report.Slug, "henry-concise")
	}

	c, err := s.GetCommentary(ctx, "henry-concise")
	if err != nil {
		t.Fatalf("GetCommentary() error = %v", err)
	}
	if c.Name != "Henry (Concise)" {
		t.Errorf("Name = %q, want %q", c.Name, "Henry (Concise)")
	}
}

func TestOSISStructuralErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "not osis",
			doc:  `<bible><verse>In the beginning</verse></bible>`,
		},
		{
			name: "no annotations",
			doc: `<osis><osisText osisIDWork="KJV">
				<div type="book" osisID="Gen"><chapter osisID="Gen.1"/></div>
			</osisText></osis>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "doc.xml", []byte(tt.doc))
			_, err := OSIS(context.Background(), store.NewMemory(), path, Meta{}, Options{})
			if err == nil {
				t.Fatal("OSIS() expected error")
			}
			var parseErr *errors.ParseError
			if !errors.As(err, &parseErr) {
				t.Errorf("error = %T (%v), want *ParseError", err, err)
			}
		})
	}
}

func TestOSISMissingSlug(t *testing.T) {
	doc := `<osis><osisText>
		<div annotateRef="Gen.1.1">text</div>
	</osisText></osis>`
	path := writeFile(t, t.TempDir(), "doc.xml", []byte(doc))

	_, err := OSIS(context.Background(), store.NewMemory(), path, Meta{}, Options{})
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("OSIS() error = %v, want ErrInvalidInput", err)
	}
}

func TestParseAnnotateRef(t *testing.T) {
	refs, err := parseAnnotateRef("John.3.16 John.3.18-John.3.19")
	if err != nil {
		t.Fatalf("parseAnnotateRef() error = %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("len(refs) = %d, want 2", len(refs))
	}
	if refs[0].Verses.Start != 16 || refs[1].Verses.End != 19 {
		t.Errorf("refs = %+v", refs)
	}

	if _, err := parseAnnotateRef("John.3.16 Bogus.1.1"); err == nil {
		t.Error("parseAnnotateRef() expected error for unknown book in list")
	}
}
