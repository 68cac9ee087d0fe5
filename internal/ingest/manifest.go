package ingest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/commentariat/core/errors"
)

// Meta describes the commentary a source loads into.
type Meta struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	License     string `json:"license,omitempty"`
	Language    string `json:"language,omitempty"`
}

// Manifest is the JSON document a commentary ships as: a descriptor plus
// entry records, either inline or in a sidecar NDJSON file.
//
// Records stay raw here. Each one is decoded individually during the run
// so a single malformed record skips instead of failing the whole file.
type Manifest struct {
	Commentary  Meta              `json:"commentary"`
	Entries     []json.RawMessage `json:"entries"`
	EntriesFile string            `json:"entries_file"`

	dir string
	raw []byte
}

// LoadManifest reads and validates a manifest file. Sidecar entry files
// resolve relative to the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		var parseErr *errors.ParseError
		if errors.As(err, &parseErr) && parseErr.Path == "" {
			parseErr.Path = path
		}
		return nil, err
	}
	m.dir = filepath.Dir(path)
	m.raw = data
	return m, nil
}

// ParseManifest parses manifest JSON and checks its structure.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.NewParse("manifest", "", err.Error())
	}
	m.Commentary.Slug = strings.TrimSpace(m.Commentary.Slug)
	m.Commentary.Name = strings.TrimSpace(m.Commentary.Name)
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// validate checks the structural rules. A violation here aborts the whole
// ingestion before anything touches the store.
func (m *Manifest) validate() error {
	if m.Commentary.Slug == "" {
		return errors.NewValidation("commentary.slug", "commentary.slug is required")
	}
	if m.Commentary.Name == "" {
		return errors.NewValidation("commentary.name", "commentary.name is required")
	}
	if m.Entries != nil && m.EntriesFile != "" {
		return errors.NewValidation("entries", "use either entries or entries_file, not both")
	}
	if m.Entries == nil && m.EntriesFile == "" {
		return errors.NewValidation("entries", "entries or entries_file is required")
	}
	return nil
}

// EntriesPath resolves the sidecar entries file against the manifest
// directory. Absolute paths are kept as-is.
func (m *Manifest) EntriesPath() string {
	if m.EntriesFile == "" {
		return ""
	}
	if filepath.IsAbs(m.EntriesFile) {
		return m.EntriesFile
	}
	return filepath.Join(m.dir, m.EntriesFile)
}
