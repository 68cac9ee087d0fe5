// Package sword imports commentary text from SWORD modules by way of the
// diatheke command-line tool shipped with the SWORD engine.
//
// The module conf under mods.d/ supplies the commentary metadata; the
// text itself is pulled chapter by chapter and funneled through the same
// batch pipeline as the other ingestion formats.
package sword

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/FocuswithJustin/commentariat/core/canon"
	"github.com/FocuswithJustin/commentariat/core/errors"
	"github.com/FocuswithJustin/commentariat/core/store"
	"github.com/FocuswithJustin/commentariat/internal/ingest"
	"github.com/FocuswithJustin/commentariat/internal/logging"
)

// maxDescription caps the About text carried into commentary metadata.
const maxDescription = 500

// Meta builds commentary metadata from the conf. The module ID becomes
// the slug (lowercased) and the source label.
func (c *ModuleConf) Meta() ingest.Meta {
	name := c.Description
	if name == "" {
		name = c.Module
	}
	license := c.License
	if license == "" {
		license = "Unknown"
	}
	lang := c.Lang
	if lang == "" {
		lang = "en"
	}
	return ingest.Meta{
		Slug:        strings.ToLower(c.Module),
		Name:        name,
		Description: truncate(c.About, maxDescription),
		Source:      "SWORD: " + c.Module,
		License:     license,
		Language:    lang,
	}
}

// truncate caps s at n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Import loads one SWORD commentary module into the store. swordPath is
// the library directory holding mods.d/; module is the module ID, used
// both to locate the conf and as the diatheke lookup target.
func Import(ctx context.Context, s store.Store, swordPath, module string, opts ingest.Options) (*ingest.Report, error) {
	if strings.TrimSpace(module) == "" {
		return nil, errors.NewValidation("module", "module name is required")
	}
	if _, err := os.Stat(swordPath); err != nil {
		return nil, errors.NewIO("stat", swordPath, err)
	}

	confPath := ConfPath(swordPath, module)
	data, err := os.ReadFile(confPath)
	if err != nil {
		return nil, errors.NewIO("read", confPath, err)
	}
	conf, err := ParseConf(bytes.NewReader(data))
	if err != nil {
		return nil, errors.NewParse("conf", confPath, err.Error())
	}

	// The [Section] header is authoritative for the module ID; the
	// argument only locates the conf file.
	if conf.Module == "" {
		conf.Module = module
	} else if conf.Module != module {
		logging.Info("using module name from conf", "module", conf.Module, "argument", module)
	}
	module = conf.Module

	if !conf.IsCommentary() {
		logging.Warn("module does not look like a commentary", "module", module, "mod_drv", conf.ModDrv)
	}

	d, err := NewDiatheke(swordPath)
	if err != nil {
		return nil, err
	}

	meta := conf.Meta()
	logging.IngestEvent("start", meta.Slug, "sword", "module", module, "sword_path", swordPath)

	b := ingest.NewBatch(meta, "sword")
	b.HashBytes(data)

	books := conf.BooksWithCommentary()
	if len(books) == 0 {
		books = canon.Books()
	}

	for _, book := range books {
		for chapter := 1; chapter <= book.Chapters; chapter++ {
			verses, bad, err := d.ChapterVerses(ctx, module, book, chapter)
			if err != nil {
				return nil, err
			}
			for _, key := range bad {
				b.Skip(fmt.Sprintf("unresolvable diatheke key %q", key))
			}
			for _, v := range verses {
				b.HashBytes([]byte(v.Text))
				b.AddEntry(store.Entry{
					Book:    v.Ref.Book.Name,
					Chapter: v.Ref.Chapter,
					Range:   v.Ref.Verses,
					Text:    v.Text,
				})
			}
		}
	}

	return b.Commit(ctx, s, opts)
}
