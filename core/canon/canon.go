// Package canon holds the fixed 66-book Protestant canon and resolves
// free-form book spellings to their canonical identity.
//
// The alias registry is built once at package init and never mutated, so
// Resolve is safe for concurrent use without locking.
package canon

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/commentariat/core/errors"
)

// Book identifies one canonical Scripture book.
type Book struct {
	// Name is the official display name, e.g. "1 Samuel".
	Name string `json:"name"`
	// Slug is the URL-safe form of the name, e.g. "1-samuel".
	Slug string `json:"slug"`
	// Ordinal is the 1-based position in canonical Scripture order.
	Ordinal int `json:"ordinal"`
	// Chapters is the KJV chapter count, used to walk a whole book.
	Chapters int `json:"chapters"`
}

// UnknownBookError reports a book string that matched no alias.
type UnknownBookError struct {
	Raw string
}

func (e *UnknownBookError) Error() string {
	return fmt.Sprintf("unknown book: %s", e.Raw)
}

func (e *UnknownBookError) Unwrap() error {
	return errors.ErrInvalidInput
}

// bookTable is the canonical source of truth: Scripture order, KJV chapter
// counts, and accepted abbreviations. Every display name and slug is also
// an alias of itself.
var bookTable = []struct {
	name     string
	chapters int
	aliases  []string
}{
	{"Genesis", 50, []string{"gen", "ge", "gn"}},
	{"Exodus", 40, []string{"exod", "exo", "ex"}},
	{"Leviticus", 27, []string{"lev", "lv", "levit"}},
	{"Numbers", 36, []string{"num", "nm", "nb"}},
	{"Deuteronomy", 34, []string{"deut", "dt", "deu"}},
	{"Joshua", 24, []string{"josh", "jos", "jsh"}},
	{"Judges", 21, []string{"judg", "jdg", "jdgs", "jgs"}},
	{"Ruth", 4, []string{"ruth", "ru", "rth"}},
	{"1 Samuel", 31, []string{"1sam", "1samuel", "1sa", "1sm", "isamuel", "firstsamuel"}},
	{"2 Samuel", 24, []string{"2sam", "2samuel", "2sa", "2sm", "iisamuel", "secondsamuel"}},
	{"1 Kings", 22, []string{"1kgs", "1kings", "1ki", "1k", "ikings", "firstkings"}},
	{"2 Kings", 25, []string{"2kgs", "2kings", "2ki", "2k", "iikings", "secondkings"}},
	{"1 Chronicles", 29, []string{"1chr", "1chron", "1chronicles", "1ch", "ichronicles", "firstchronicles"}},
	{"2 Chronicles", 36, []string{"2chr", "2chron", "2chronicles", "2ch", "iichronicles", "secondchronicles"}},
	{"Ezra", 10, []string{"ezra", "ezr"}},
	{"Nehemiah", 13, []string{"neh", "ne"}},
	{"Esther", 10, []string{"esth", "est", "es"}},
	{"Job", 42, []string{"job", "jb"}},
	{"Psalms", 150, []string{"ps", "psa", "psalm", "psalms"}},
	{"Proverbs", 31, []string{"prov", "pr", "prv"}},
	{"Ecclesiastes", 12, []string{"eccl", "ecc", "ec", "qoh"}},
	{"Song of Solomon", 8, []string{"song", "songofsolomon", "songofsongs", "cant", "canticles", "sos"}},
	{"Isaiah", 66, []string{"isa", "is"}},
	{"Jeremiah", 52, []string{"jer", "je"}},
	{"Lamentations", 5, []string{"lam", "la"}},
	{"Ezekiel", 48, []string{"ezek", "eze", "ezk"}},
	{"Daniel", 12, []string{"dan", "da", "dn"}},
	{"Hosea", 14, []string{"hos", "ho"}},
	{"Joel", 3, []string{"joel", "joe", "jl"}},
	{"Amos", 9, []string{"amos", "am"}},
	{"Obadiah", 1, []string{"obad", "ob", "oba"}},
	{"Jonah", 4, []string{"jonah", "jon", "jh"}},
	{"Micah", 7, []string{"mic", "mc"}},
	{"Nahum", 3, []string{"nah", "na"}},
	{"Habakkuk", 3, []string{"hab", "hb"}},
	{"Zephaniah", 3, []string{"zeph", "zep", "zp"}},
	{"Haggai", 2, []string{"hag", "hg"}},
	{"Zechariah", 14, []string{"zech", "zec", "zc"}},
	{"Malachi", 4, []string{"mal", "ml"}},
	{"Matthew", 28, []string{"matt", "mt", "mat"}},
	{"Mark", 16, []string{"mark", "mr", "mk"}},
	{"Luke", 24, []string{"luke", "lk", "lu"}},
	{"John", 21, []string{"john", "jn", "jhn"}},
	{"Acts", 28, []string{"acts", "ac"}},
	{"Romans", 16, []string{"rom", "ro", "rm"}},
	{"1 Corinthians", 16, []string{"1cor", "1corinthians", "1co", "icor", "firstcorinthians"}},
	{"2 Corinthians", 13, []string{"2cor", "2corinthians", "2co", "iicor", "secondcorinthians"}},
	{"Galatians", 6, []string{"gal", "ga"}},
	{"Ephesians", 6, []string{"eph", "ep"}},
	{"Philippians", 4, []string{"phil", "php", "phl"}},
	{"Colossians", 4, []string{"col", "co"}},
	{"1 Thessalonians", 5, []string{"1thess", "1thessalonians", "1th", "ithess", "firstthessalonians"}},
	{"2 Thessalonians", 3, []string{"2thess", "2thessalonians", "2th", "iithess", "secondthessalonians"}},
	{"1 Timothy", 6, []string{"1tim", "1timothy", "1ti", "itimothy", "firsttimothy"}},
	{"2 Timothy", 4, []string{"2tim", "2timothy", "2ti", "iitimothy", "secondtimothy"}},
	{"Titus", 3, []string{"titus", "tit", "ti"}},
	{"Philemon", 1, []string{"phlm", "phm"}},
	{"Hebrews", 13, []string{"heb", "he"}},
	{"James", 5, []string{"jas", "jam", "jm"}},
	{"1 Peter", 5, []string{"1pet", "1peter", "1pe", "ipeter", "firstpeter"}},
	{"2 Peter", 3, []string{"2pet", "2peter", "2pe", "iipeter", "secondpeter"}},
	{"1 John", 5, []string{"1john", "1jn", "1jo", "ijohn", "firstjohn"}},
	{"2 John", 1, []string{"2john", "2jn", "2jo", "iijohn", "secondjohn"}},
	{"3 John", 1, []string{"3john", "3jn", "3jo", "iiijohn", "thirdjohn"}},
	{"Jude", 1, []string{"jude", "jud"}},
	{"Revelation", 22, []string{"rev", "re", "apocalypse"}},
}

// ordinalPrefixes maps leading-token numbering variants to digits, so
// "I Samuel", "First Samuel" and "1 Samuel" all resolve to the same key.
var ordinalPrefixes = map[string]string{
	"i":      "1",
	"ii":     "2",
	"iii":    "3",
	"first":  "1",
	"second": "2",
	"third":  "3",
}

var (
	books      []Book
	aliasIndex map[string]int
)

func init() {
	books = make([]Book, len(bookTable))
	aliasIndex = make(map[string]int, len(bookTable)*8)
	for i, def := range bookTable {
		b := Book{
			Name:     def.name,
			Slug:     slugify(def.name),
			Ordinal:  i + 1,
			Chapters: def.chapters,
		}
		books[i] = b
		for _, alias := range append([]string{def.name, b.Slug}, def.aliases...) {
			key := squash(alias)
			if key == "" {
				continue
			}
			if prev, exists := aliasIndex[key]; exists && prev != i {
				panic(fmt.Sprintf("canon: alias %q claimed by both %s and %s",
					alias, books[prev].Name, def.name))
			}
			aliasIndex[key] = i
		}
	}
}

// slugify converts a display name to its URL-safe form.
func slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// squash lowercases and strips every non-alphanumeric rune, so the lookup
// tolerates whitespace and punctuation variants.
func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeKey trims, collapses whitespace, case-folds, rewrites an ordinal
// prefix token to its digit form, and squashes the result to the alias key.
func normalizeKey(raw string) string {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) > 1 {
		if digit, ok := ordinalPrefixes[fields[0]]; ok {
			fields[0] = digit
		}
	}
	return squash(strings.Join(fields, ""))
}

// Resolve maps an arbitrary book spelling to its canonical Book. Lookup is
// exact against the alias registry after normalization; there is no fuzzy
// or closest-match fallback.
func Resolve(raw string) (Book, error) {
	if strings.TrimSpace(raw) == "" {
		return Book{}, errors.NewValidation("book", "book name is required")
	}
	idx, ok := aliasIndex[normalizeKey(raw)]
	if !ok {
		return Book{}, &UnknownBookError{Raw: raw}
	}
	return books[idx], nil
}

// Books returns the 66 canonical books in Scripture order.
func Books() []Book {
	out := make([]Book, len(books))
	copy(out, books)
	return out
}

// Count is the number of canonical books.
const Count = 66
