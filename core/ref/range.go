package ref

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FocuswithJustin/commentariat/core/errors"
)

// Range is an inclusive verse range within one chapter.
// A single verse is represented as Start == End.
type Range struct {
	Start int `json:"verse_start"`
	End   int `json:"verse_end"`
}

// Contains reports whether verse v falls inside the range.
func (r Range) Contains(v int) bool {
	return r.Start <= v && v <= r.End
}

// Single reports whether the range covers exactly one verse.
func (r Range) Single() bool {
	return r.Start == r.End
}

func (r Range) String() string {
	if r.Single() {
		return strconv.Itoa(r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// RangeSpec carries the three accepted verse-range input shapes. When more
// than one is present, explicit VerseStart/VerseEnd win over the Verse
// expression.
type RangeSpec struct {
	// VerseStart and VerseEnd are explicit integers. VerseEnd defaults to
	// VerseStart when only the start is given.
	VerseStart *int
	VerseEnd   *int
	// Verse is a single verse ("16") or a range expression ("16-18").
	Verse string
}

// InvalidRangeError reports a range whose end precedes its start.
type InvalidRangeError struct {
	Start int
	End   int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid verse range: end %d before start %d", e.End, e.Start)
}

func (e *InvalidRangeError) Unwrap() error {
	return errors.ErrInvalidInput
}

// OutOfRangeError reports a chapter or verse value outside the positive
// integers.
type OutOfRangeError struct {
	Field string
	Value int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s out of range: %d", e.Field, e.Value)
}

func (e *OutOfRangeError) Unwrap() error {
	return errors.ErrInvalidInput
}

// MissingVerseError reports an entry that supplied no verse anchor at all.
type MissingVerseError struct{}

func (e *MissingVerseError) Error() string {
	return "no verse anchor supplied"
}

func (e *MissingVerseError) Unwrap() error {
	return errors.ErrInvalidInput
}

// ResolveRange turns a RangeSpec into a validated Range. Resolution never
// clamps or truncates: every malformed or out-of-bounds input is a typed
// error, not a guessed verse.
func ResolveRange(spec RangeSpec) (Range, error) {
	switch {
	case spec.VerseEnd != nil && spec.VerseStart == nil:
		return Range{}, errors.NewValidation("verse_start", "verse_end given without verse_start")
	case spec.VerseStart != nil:
		start := *spec.VerseStart
		end := start
		if spec.VerseEnd != nil {
			end = *spec.VerseEnd
		}
		return NewRange(start, end)
	case strings.TrimSpace(spec.Verse) != "":
		return ParseVerseExpr(spec.Verse)
	default:
		return Range{}, &MissingVerseError{}
	}
}

// NewRange validates an explicit (start, end) pair.
func NewRange(start, end int) (Range, error) {
	if start < 1 {
		return Range{}, &OutOfRangeError{Field: "verse_start", Value: start}
	}
	if end < 1 {
		return Range{}, &OutOfRangeError{Field: "verse_end", Value: end}
	}
	if end < start {
		return Range{}, &InvalidRangeError{Start: start, End: end}
	}
	return Range{Start: start, End: end}, nil
}

// ParseChapter parses a chapter token and checks it is a positive integer.
func ParseChapter(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.NewParse("chapter", raw, "not a number")
	}
	if n < 1 {
		return 0, &OutOfRangeError{Field: "chapter", Value: n}
	}
	return n, nil
}

// ParseVerse parses a verse token and checks it is a positive integer.
func ParseVerse(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.NewParse("verse", raw, "not a number")
	}
	if n < 1 {
		return 0, &OutOfRangeError{Field: "verse", Value: n}
	}
	return n, nil
}

// CheckChapter validates an already-numeric chapter.
func CheckChapter(n int) error {
	if n < 1 {
		return &OutOfRangeError{Field: "chapter", Value: n}
	}
	return nil
}

// CheckVerse validates an already-numeric verse.
func CheckVerse(n int) error {
	if n < 1 {
		return &OutOfRangeError{Field: "verse", Value: n}
	}
	return nil
}
