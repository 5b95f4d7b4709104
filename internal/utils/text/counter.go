// Package text provides helpers for turning feed markup into plain text.
package text

import "unicode/utf8"

// CountRunes counts the number of Unicode characters (runes) in the given text.
// Feed titles regularly carry typographic quotes and non-Latin names, so length
// checks are done on runes instead of bytes.
//
// Examples:
//
//	CountRunes("hello")   // returns 5
//	CountRunes("café")    // returns 4
//	CountRunes("")        // returns 0
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}
