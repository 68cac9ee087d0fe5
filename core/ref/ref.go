// Package ref resolves scripture references: free-form book names through
// the canon alias registry, and verse expressions into inclusive ranges.
package ref

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/commentariat/core/canon"
	"github.com/FocuswithJustin/commentariat/core/errors"
)

// Reference is a fully resolved scripture location.
type Reference struct {
	Book    canon.Book `json:"book"`
	Chapter int        `json:"chapter"`
	Verses  Range      `json:"verses"`
}

// HasVerses reports whether the reference carries a verse range. References
// parsed from chapter-only input leave Verses zero.
func (r Reference) HasVerses() bool {
	return r.Verses.Start > 0
}

// verseExpr is the participle grammar for verse expressions.
// Examples: "16", "16-18"
//
//nolint:govet // participle grammar tags are not standard struct tags
type verseExpr struct {
	Start int  `@Int`
	End   *int `( "-" @Int )?`
}

// refGrammar is the participle grammar for human-style references as emitted
// by SWORD tools. Examples: "John 3:16", "1 John 3:16-18", "Song of Solomon 2:4",
// "Psalms 23"
//
//nolint:govet // participle grammar tags are not standard struct tags
type refGrammar struct {
	BookNum  string     `@Int?`
	BookName []string   `@Ident+`
	Chapter  int        `@Int`
	Verses   *verseExpr `( ":" @@ )?`
}

// osisPoint is one endpoint of an OSIS identifier. Examples: "Gen.1.1",
// "1John.3", "Matt.5.3"
//
//nolint:govet // participle grammar tags are not standard struct tags
type osisPoint struct {
	BookNum  string `@Int?`
	BookName string `@Ident`
	Chapter  int    `"." @Int`
	Verse    *int   `( "." @Int )?`
}

// osisRange is a single OSIS identifier or a dashed range of two.
// Example: "Matt.5.3-Matt.5.12"
//
//nolint:govet // participle grammar tags are not standard struct tags
type osisRange struct {
	Start osisPoint  `@@`
	End   *osisPoint `( "-" @@ )?`
}

// refLexer tokenizes all three reference dialects.
var refLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z]+`},
	{Name: "Punct", Pattern: `[.:\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var (
	verseParser = participle.MustBuild[verseExpr](
		participle.Lexer(refLexer),
		participle.Elide("Whitespace"),
	)
	refParser = participle.MustBuild[refGrammar](
		participle.Lexer(refLexer),
		participle.Elide("Whitespace"),
	)
	osisParser = participle.MustBuild[osisRange](
		participle.Lexer(refLexer),
		participle.Elide("Whitespace"),
	)
)

// ResolveBook maps an arbitrary book spelling to its canonical Book.
func ResolveBook(raw string) (canon.Book, error) {
	return canon.Resolve(raw)
}

// ParseVerseExpr parses a verse expression: a single verse ("16") or a
// dashed range ("16-18"). Both bounds must be positive and ordered.
func ParseVerseExpr(raw string) (Range, error) {
	parsed, err := verseParser.ParseString("", strings.TrimSpace(raw))
	if err != nil {
		return Range{}, errors.NewParse("verse expression", raw, err.Error())
	}
	end := parsed.Start
	if parsed.End != nil {
		end = *parsed.End
	}
	return NewRange(parsed.Start, end)
}

// ParseReference parses a human-style reference such as "John 3:16",
// "1 John 3:16-18" or "Psalms 23". The book part is resolved through the
// canon registry, so any accepted alias spelling works.
func ParseReference(raw string) (Reference, error) {
	parsed, err := refParser.ParseString("", strings.TrimSpace(raw))
	if err != nil {
		return Reference{}, errors.NewParse("reference", raw, err.Error())
	}

	bookRaw := strings.Join(parsed.BookName, " ")
	if parsed.BookNum != "" {
		bookRaw = parsed.BookNum + " " + bookRaw
	}
	book, err := canon.Resolve(bookRaw)
	if err != nil {
		return Reference{}, err
	}
	if err := CheckChapter(parsed.Chapter); err != nil {
		return Reference{}, err
	}

	out := Reference{Book: book, Chapter: parsed.Chapter}
	if parsed.Verses != nil {
		end := parsed.Verses.Start
		if parsed.Verses.End != nil {
			end = *parsed.Verses.End
		}
		out.Verses, err = NewRange(parsed.Verses.Start, end)
		if err != nil {
			return Reference{}, err
		}
	}
	return out, nil
}

// ParseOSISRef parses an OSIS identifier ("Matt.5.3") or identifier range
// ("Matt.5.3-Matt.5.12"). Ranges must stay within one chapter of one book.
// An identifier without a verse yields MissingVerseError.
func ParseOSISRef(raw string) (Reference, error) {
	parsed, err := osisParser.ParseString("", strings.TrimSpace(raw))
	if err != nil {
		return Reference{}, errors.NewParse("osis ref", raw, err.Error())
	}

	book, err := canon.Resolve(parsed.Start.BookNum + parsed.Start.BookName)
	if err != nil {
		return Reference{}, err
	}
	if err := CheckChapter(parsed.Start.Chapter); err != nil {
		return Reference{}, err
	}
	if parsed.Start.Verse == nil {
		return Reference{}, &MissingVerseError{}
	}

	start := *parsed.Start.Verse
	end := start
	if parsed.End != nil {
		endBook, err := canon.Resolve(parsed.End.BookNum + parsed.End.BookName)
		if err != nil {
			return Reference{}, err
		}
		if endBook.Ordinal != book.Ordinal || parsed.End.Chapter != parsed.Start.Chapter {
			return Reference{}, errors.NewParse("osis ref", raw, "range crosses a chapter boundary")
		}
		if parsed.End.Verse == nil {
			return Reference{}, &MissingVerseError{}
		}
		end = *parsed.End.Verse
	}

	verses, err := NewRange(start, end)
	if err != nil {
		return Reference{}, err
	}
	return Reference{Book: book, Chapter: parsed.Start.Chapter, Verses: verses}, nil
}
