package ingest

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"
)

func readAll(t *testing.T, r *entriesReader) []string {
	t.Helper()
	var records []string
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return records
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		records = append(records, string(rec))
	}
}

func TestReaderPlain(t *testing.T) {
	data := "{\"book\":\"John\"}\n\n  \n{\"book\":\"Romans\"}\n"
	path := writeFile(t, t.TempDir(), "entries.ndjson", []byte(data))

	r, err := openEntries(path)
	if err != nil {
		t.Fatalf("openEntries() error = %v", err)
	}
	defer r.Close()

	records := readAll(t, r)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0] != `{"book":"John"}` {
		t.Errorf("unexpected first record: %s", records[0])
	}
	if records[1] != `{"book":"Romans"}` {
		t.Errorf("unexpected second record: %s", records[1])
	}
}

func TestReaderGzip(t *testing.T) {
	var b bytes.Buffer
	zw := gzip.NewWriter(&b)
	if _, err := zw.Write([]byte("{\"n\":1}\n{\"n\":2}\n{\"n\":3}\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, t.TempDir(), "entries.ndjson.gz", b.Bytes())

	r, err := openEntries(path)
	if err != nil {
		t.Fatalf("openEntries() error = %v", err)
	}
	defer r.Close()

	records := readAll(t, r)
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestReaderXz(t *testing.T) {
	var b bytes.Buffer
	xw, err := xz.NewWriter(&b)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := xw.Write([]byte("{\"n\":1}\n{\"n\":2}\n")); err != nil {
		t.Fatal(err)
	}
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, t.TempDir(), "entries.ndjson.xz", b.Bytes())

	r, err := openEntries(path)
	if err != nil {
		t.Fatalf("openEntries() error = %v", err)
	}
	defer r.Close()

	records := readAll(t, r)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestReaderMissingFile(t *testing.T) {
	_, err := openEntries("/nonexistent/entries.ndjson")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReaderCorruptGzip(t *testing.T) {
	path := writeFile(t, t.TempDir(), "entries.ndjson.gz", []byte("not gzip data"))

	_, err := openEntries(path)
	if err == nil {
		t.Fatal("expected error for corrupt gzip")
	}
	if !strings.Contains(err.Error(), "gzip") {
		t.Errorf("expected gzip parse error, got %v", err)
	}
}

func TestReaderLongRecord(t *testing.T) {
	// A record larger than bufio's default 64KB token limit must still
	// come through in one piece.
	text := strings.Repeat("a", 128*1024)
	record := map[string]string{"text": text}
	line, err := json.Marshal(record)
	if err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, t.TempDir(), "entries.ndjson", append(line, '\n'))

	r, err := openEntries(path)
	if err != nil {
		t.Fatalf("openEntries() error = %v", err)
	}
	defer r.Close()

	records := readAll(t, r)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if len(records[0]) != len(line) {
		t.Errorf("record truncated: got %d bytes, want %d", len(records[0]), len(line))
	}
}
