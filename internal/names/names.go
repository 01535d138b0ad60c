// Package names canonicalizes student names for joining and orders them
// with Swiss German collation.
package names

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Locale is the fixed collation locale for every user-visible ordering.
var Locale = language.MustParse("de-CH")

// Normalize trims, lower-cases and collapses internal whitespace runs.
// Parenthetical suffixes are removed at extraction time, not here.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// newCollator compares at base strength: case and diacritics are ignored.
// A Collator is not safe for concurrent use, so callers get a fresh one.
func newCollator() *collate.Collator {
	return collate.New(Locale, collate.IgnoreCase, collate.IgnoreDiacritics, collate.IgnoreWidth)
}

// Compare orders a and b with de-CH collation, case-insensitively.
func Compare(a, b string) int {
	return newCollator().CompareString(a, b)
}

// SortFunc stably sorts xs by the collated key of each element.
func SortFunc[T any](xs []T, key func(T) string) {
	c := newCollator()
	slices.SortStableFunc(xs, func(a, b T) int {
		return c.CompareString(key(a), key(b))
	})
}

// SortStrings stably sorts a string slice with de-CH collation.
func SortStrings(xs []string) {
	SortFunc(xs, func(s string) string { return s })
}
