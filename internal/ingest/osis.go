package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/FocuswithJustin/commentariat/core/errors"
	"github.com/FocuswithJustin/commentariat/core/ref"
	"github.com/FocuswithJustin/commentariat/core/store"
	"github.com/FocuswithJustin/commentariat/core/xml"
	"github.com/FocuswithJustin/commentariat/internal/logging"
)

// annotatedXPath selects the elements OSIS commentaries anchor their
// comments with.
const annotatedXPath = "//div[@annotateRef] | //note[@annotateRef]"

// OSIS ingests an OSIS XML commentary. Comment elements are located by
// their annotateRef attribute; slug and name fall back to the document
// header when meta leaves them empty.
func OSIS(ctx context.Context, s store.Store, path string, meta Meta, opts Options) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	doc, err := xml.Parse(data)
	if err != nil {
		return nil, errors.NewParse("osis", path, err.Error())
	}
	root := doc.Root()
	if root == nil || root.Name() != "osis" {
		return nil, errors.NewParse("osis", path, "root element must be osis")
	}

	if meta.Slug == "" {
		if text, err := doc.XPathFirst("//osisText"); err == nil && text != nil {
			meta.Slug = strings.ToLower(strings.TrimSpace(text.Attr("osisIDWork")))
		}
	}
	if meta.Name == "" {
		if title, err := doc.XPathFirst("//header/work/title"); err == nil && title != nil {
			meta.Name = strings.TrimSpace(title.InnerText())
		}
	}
	if meta.Slug == "" {
		return nil, errors.NewValidation("slug", "commentary slug is required; none given and no osisIDWork in the document")
	}
	if meta.Name == "" {
		meta.Name = meta.Slug
	}

	logging.IngestEvent("start", meta.Slug, "osis", "path", path)

	nodes, err := doc.XPath(annotatedXPath)
	if err != nil {
		return nil, errors.Wrap(err, "query osis document")
	}
	if len(nodes) == 0 {
		return nil, errors.NewParse("osis", path, "no annotateRef elements found; not a commentary document")
	}

	b := NewBatch(meta, "osis")
	b.HashBytes(data)

	for _, node := range nodes {
		raw := node.Attr("annotateRef")
		text := strings.TrimSpace(node.InnerText())
		if text == "" {
			b.Skip(fmt.Sprintf("annotateRef %q: empty text", raw))
			continue
		}

		// annotateRef may carry several space-separated references; the
		// comment text is attached to each of them.
		refs, err := parseAnnotateRef(raw)
		if err != nil {
			b.Skip(fmt.Sprintf("annotateRef %q: %v", raw, err))
			continue
		}
		for _, reference := range refs {
			b.AddEntry(store.Entry{
				Book:    reference.Book.Name,
				Chapter: reference.Chapter,
				Range:   reference.Verses,
				Text:    text,
			})
		}
	}

	return b.Commit(ctx, s, opts)
}

func parseAnnotateRef(raw string) ([]ref.Reference, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, errors.NewValidation("annotateRef", "empty reference")
	}
	refs := make([]ref.Reference, 0, len(fields))
	for _, field := range fields {
		reference, err := ref.ParseOSISRef(field)
		if err != nil {
			return nil, err
		}
		refs = append(refs, reference)
	}
	return refs, nil
}
