// conf.go implements SWORD .conf file parsing.
// SWORD conf files are INI-like configuration files that describe module metadata.
package sword

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/commentariat/core/canon"
	"github.com/FocuswithJustin/commentariat/core/errors"
	"github.com/FocuswithJustin/commentariat/internal/logging"
)

// ModuleConf is the parsed metadata of one SWORD module.
type ModuleConf struct {
	// Module is the module ID from the [Section] header, e.g. "MHC".
	Module      string
	Description string
	About       string
	Lang        string
	License     string
	Source      string
	ModDrv      string
	Category    string
	// Properties holds every key as written, including the mapped ones.
	Properties map[string]string
}

// ParseConf parses a SWORD .conf stream. The format is INI-like: a
// [ModuleID] section header, Key=Value pairs and # comments. A value
// continues across following lines until the next Key=Value pair;
// trailing backslashes on continued lines are stripped.
func ParseConf(r io.Reader) (*ModuleConf, error) {
	conf := &ModuleConf{Properties: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	var contKey string
	var contValue strings.Builder

	flush := func() {
		if contKey != "" {
			conf.setProperty(contKey, contValue.String())
			contKey = ""
			contValue.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		stripped := strings.TrimRight(line, " \t\r")

		if strings.HasPrefix(stripped, "[") && strings.HasSuffix(stripped, "]") {
			flush()
			section := strings.TrimSuffix(strings.TrimPrefix(stripped, "["), "]")
			if conf.Module == "" {
				conf.Module = section
			}
			continue
		}

		if idx := strings.Index(stripped, "="); idx != -1 &&
			!strings.HasPrefix(line, " ") && !strings.HasPrefix(line, "\t") {
			flush()
			contKey = strings.TrimSpace(stripped[:idx])
			contValue.WriteString(strings.TrimRight(stripped[idx+1:], "\\"))
			continue
		}

		if contKey != "" && stripped != "" {
			contValue.WriteString(strings.TrimRight(stripped, "\\"))
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "read conf")
	}
	return conf, nil
}

// setProperty records a key in the Properties map and mirrors known keys
// onto struct fields.
func (c *ModuleConf) setProperty(key, value string) {
	c.Properties[key] = value

	switch strings.ToLower(key) {
	case "description":
		c.Description = value
	case "about":
		c.About = value
	case "lang":
		c.Lang = value
	case "distributionlicense":
		c.License = value
	case "textsource":
		c.Source = value
	case "moddrv":
		c.ModDrv = value
	case "category":
		c.Category = value
	}
}

// IsCommentary reports whether the module holds commentary text keyed by
// verse. Detection uses ModDrv with Category as fallback.
func (c *ModuleConf) IsCommentary() bool {
	switch strings.ToLower(c.ModDrv) {
	case "zcom", "zcom4", "rawcom", "rawcom4":
		return true
	}
	return strings.EqualFold(c.Category, "Commentaries")
}

// BooksWithCommentary extracts the book list some modules declare in
// their About text after a "Books with commentary" marker. Returns nil
// when the module declares none; names outside the canon are dropped.
func (c *ModuleConf) BooksWithCommentary() []canon.Book {
	var books []canon.Book
	recording := false
	for _, part := range strings.Split(c.About, `\par`) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !recording {
			if strings.HasPrefix(strings.ToLower(part), "books with commentary") {
				recording = true
			}
			continue
		}
		book, err := canon.Resolve(part)
		if err != nil {
			logging.Warn("skipping unknown book in module book list", "book", part)
			continue
		}
		books = append(books, book)
	}
	return books
}

// ConfPath returns the conventional conf location for a module: the
// lowercased module ID under mods.d/.
func ConfPath(swordPath, module string) string {
	return filepath.Join(swordPath, "mods.d", strings.ToLower(module)+".conf")
}
