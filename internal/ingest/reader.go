package ingest

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/commentariat/core/errors"
)

// maxRecordBytes bounds a single NDJSON line. Commentary entries carry
// whole paragraphs, so the default bufio limit is too small.
const maxRecordBytes = 4 << 20

// entriesReader streams records from a sidecar NDJSON file. It detects
// and handles .gz and .xz compression by file suffix.
type entriesReader struct {
	path         string
	file         *os.File
	decompressor io.Closer
	scanner      *bufio.Scanner
}

func openEntries(path string) (*entriesReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	var reader io.Reader = f
	var decompressor io.Closer

	switch {
	case strings.HasSuffix(path, ".xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.NewParse("xz", path, err.Error())
		}
		reader = xzr
		decompressor = nil // xz reader doesn't need closing
	case strings.HasSuffix(path, ".gz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, errors.NewParse("gzip", path, err.Error())
		}
		reader = gzr
		decompressor = gzr
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordBytes)

	return &entriesReader{
		path:         path,
		file:         f,
		decompressor: decompressor,
		scanner:      scanner,
	}, nil
}

// Next returns the next non-blank record, or io.EOF when the file is
// exhausted.
func (r *entriesReader) Next() (json.RawMessage, error) {
	for r.scanner.Scan() {
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		record := make(json.RawMessage, len(line))
		copy(record, line)
		return record, nil
	}
	if err := r.scanner.Err(); err != nil {
		return nil, errors.NewIO("read", r.path, err)
	}
	return nil, io.EOF
}

// Close closes the reader and any underlying decompressor.
func (r *entriesReader) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}
