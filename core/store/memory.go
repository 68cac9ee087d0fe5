package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FocuswithJustin/commentariat/core/errors"
)

type chapterKey struct {
	slug    string
	book    string
	chapter int
}

// Memory is an in-process Store used by tests and by the serve command
// when no durable backend is configured.
type Memory struct {
	mu           sync.RWMutex
	commentaries map[string]Commentary
	chapters     map[chapterKey][]Entry
	runs         map[string][]IngestRun
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		commentaries: make(map[string]Commentary),
		chapters:     make(map[chapterKey][]Entry),
		runs:         make(map[string][]IngestRun),
	}
}

func (m *Memory) BulkLoad(ctx context.Context, c Commentary, entries []Entry, replace bool) (int, error) {
	if c.Slug == "" {
		return 0, errors.NewValidation("slug", "commentary slug is required")
	}

	// Group and sort outside the lock; the live maps change only after
	// the conflict check passes.
	staged := make(map[chapterKey][]Entry)
	for _, e := range entries {
		key := chapterKey{slug: c.Slug, book: e.Book, chapter: e.Chapter}
		staged[key] = append(staged[key], e)
	}
	for key := range staged {
		group := staged[key]
		sort.Slice(group, func(i, j int) bool {
			if group[i].Start != group[j].Start {
				return group[i].Start < group[j].Start
			}
			return group[i].End < group[j].End
		})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.commentaries[c.Slug]; exists && !replace {
		return 0, errors.NewConflict("commentary", c.Slug, "already loaded; use replace to overwrite")
	}
	for key := range m.chapters {
		if key.slug == c.Slug {
			delete(m.chapters, key)
		}
	}
	c.UpdatedAt = time.Now().UTC()
	m.commentaries[c.Slug] = c
	for key, group := range staged {
		m.chapters[key] = group
	}
	return len(entries), nil
}

func (m *Memory) QueryChapter(ctx context.Context, slug, book string, chapter int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.commentaries[slug]; !ok {
		return nil, errors.NewNotFound("commentary", slug)
	}
	group := m.chapters[chapterKey{slug: slug, book: book, chapter: chapter}]
	out := make([]Entry, len(group))
	copy(out, group)
	return out, nil
}

func (m *Memory) QueryVerse(ctx context.Context, slug, book string, chapter, verse int) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.commentaries[slug]; !ok {
		return nil, errors.NewNotFound("commentary", slug)
	}
	group := m.chapters[chapterKey{slug: slug, book: book, chapter: chapter}]
	out := []Entry{}
	for _, e := range group {
		if e.Start > verse {
			break
		}
		if e.Contains(verse) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *Memory) ListCommentaries(ctx context.Context) ([]Commentary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Commentary, 0, len(m.commentaries))
	for _, c := range m.commentaries {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *Memory) GetCommentary(ctx context.Context, ident string) (Commentary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(ident)
	for _, c := range m.commentaries {
		if strings.ToLower(c.Slug) == needle || strings.ToLower(c.Name) == needle {
			return c, nil
		}
	}
	return Commentary{}, errors.NewNotFound("commentary", ident)
}

func (m *Memory) RecordRun(ctx context.Context, run IngestRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs[run.Slug] = append(m.runs[run.Slug], run)
	return nil
}

func (m *Memory) ListRuns(ctx context.Context, slug string) ([]IngestRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []IngestRun{}
	if slug == "" {
		for _, runs := range m.runs {
			out = append(out, runs...)
		}
	} else {
		out = append(out, m.runs[slug]...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
