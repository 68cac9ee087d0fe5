package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/FocuswithJustin/commentariat/core/canon"
	"github.com/FocuswithJustin/commentariat/core/errors"
	"github.com/FocuswithJustin/commentariat/core/ref"
	"github.com/FocuswithJustin/commentariat/core/store"
	"github.com/FocuswithJustin/commentariat/internal/logging"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// BookInfo describes one book of the canon.
type BookInfo struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Ordinal int    `json:"ordinal"`
}

// EntriesData is the payload for chapter and verse queries.
type EntriesData struct {
	Commentary store.Commentary `json:"commentary"`
	Book       string           `json:"book"`
	Chapter    int              `json:"chapter"`
	Verse      int              `json:"verse,omitempty"`
	Entries    []store.Entry    `json:"entries"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	Commentaries int    `json:"commentaries"`
}

var startTime = time.Now()

func handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	respond(w, http.StatusOK, map[string]interface{}{
		"name":    "Commentariat API",
		"version": ServerConfig.Version,
		"endpoints": []string{
			"GET /healthz",
			"GET /metrics",
			"GET /api/v1/books",
			"GET /api/v1/commentaries",
			"GET /api/v1/commentaries/:commentary",
			"GET /api/v1/commentaries/:commentary/:book/:chapter",
			"GET /api/v1/commentaries/:commentary/:book/:chapter/:verse",
		},
	})
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	if err := ServerStore.Ping(r.Context()); err != nil {
		logging.ErrorContext(r.Context(), "store ping failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "STORE_UNAVAILABLE", "Store is not reachable")
		return
	}

	commentaries, _ := ServerStore.ListCommentaries(r.Context())

	respond(w, http.StatusOK, HealthInfo{
		Status:       "ok",
		Version:      ServerConfig.Version,
		Uptime:       time.Since(startTime).Round(time.Second).String(),
		Commentaries: len(commentaries),
	})
}

func handleBooks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	books := canon.Books()
	infos := make([]BookInfo, 0, len(books))
	for _, b := range books {
		infos = append(infos, BookInfo{Name: b.Name, Slug: b.Slug, Ordinal: b.Ordinal})
	}

	respondList(w, http.StatusOK, infos, len(infos))
}

func handleCommentaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	commentaries, err := ServerStore.ListCommentaries(r.Context())
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondList(w, http.StatusOK, commentaries, len(commentaries))
}

// handleCommentaryPath dispatches /api/v1/commentaries/... by segment count:
// one segment is a metadata lookup, three a chapter query, four a verse query.
func handleCommentaryPath(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/commentaries/"), "/")
	if path == "" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
		return
	}

	segments := strings.Split(path, "/")
	switch len(segments) {
	case 1:
		commentaryDetail(w, r, segments[0])
	case 3:
		chapterEntries(w, r, segments[0], segments[1], segments[2])
	case 4:
		verseEntries(w, r, segments[0], segments[1], segments[2], segments[3])
	default:
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Endpoint not found")
	}
}

func commentaryDetail(w http.ResponseWriter, r *http.Request, ident string) {
	c, err := ServerStore.GetCommentary(r.Context(), ident)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respond(w, http.StatusOK, c)
}

func chapterEntries(w http.ResponseWriter, r *http.Request, ident, rawBook, rawChapter string) {
	chapter, err := ref.ParseChapter(rawChapter)
	if err != nil {
		respondResolveError(w, err)
		return
	}

	c, err := ServerStore.GetCommentary(r.Context(), ident)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	book, err := canon.Resolve(rawBook)
	if err != nil {
		respondResolveError(w, err)
		return
	}

	entries, err := ServerStore.QueryChapter(r.Context(), c.Slug, book.Name, chapter)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondList(w, http.StatusOK, EntriesData{
		Commentary: c,
		Book:       book.Name,
		Chapter:    chapter,
		Entries:    entries,
	}, len(entries))
}

func verseEntries(w http.ResponseWriter, r *http.Request, ident, rawBook, rawChapter, rawVerse string) {
	chapter, err := ref.ParseChapter(rawChapter)
	if err != nil {
		respondResolveError(w, err)
		return
	}

	verse, err := ref.ParseVerse(rawVerse)
	if err != nil {
		respondResolveError(w, err)
		return
	}

	c, err := ServerStore.GetCommentary(r.Context(), ident)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	book, err := canon.Resolve(rawBook)
	if err != nil {
		respondResolveError(w, err)
		return
	}

	entries, err := ServerStore.QueryVerse(r.Context(), c.Slug, book.Name, chapter, verse)
	if err != nil {
		respondStoreError(w, r, err)
		return
	}

	respondList(w, http.StatusOK, EntriesData{
		Commentary: c,
		Book:       book.Name,
		Chapter:    chapter,
		Verse:      verse,
		Entries:    entries,
	}, len(entries))
}

// respondResolveError maps reference resolution failures to 400 responses
// with a typed code, so "book unrecognized" stays distinguishable from
// "book recognized, no data".
func respondResolveError(w http.ResponseWriter, err error) {
	var bookErr *canon.UnknownBookError
	var rangeErr *ref.OutOfRangeError
	var parseErr *errors.ParseError

	switch {
	case errors.As(err, &bookErr):
		respondError(w, http.StatusBadRequest, "UNKNOWN_BOOK", bookErr.Error())
	case errors.As(err, &rangeErr):
		respondError(w, http.StatusBadRequest, "OUT_OF_RANGE", rangeErr.Error())
	case errors.As(err, &parseErr):
		respondError(w, http.StatusBadRequest, "INVALID_REFERENCE", parseErr.Error())
	case errors.Is(err, errors.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_REFERENCE", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
	}
}

func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errors.ErrNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Commentary not found")
		return
	}

	logging.ErrorContext(r.Context(), "store query failed", "error", err)
	respondError(w, http.StatusInternalServerError, "INTERNAL", "Internal server error")
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondList(w http.ResponseWriter, status int, data interface{}, total int) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
