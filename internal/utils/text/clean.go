package text

import (
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Ellipsis is appended to text shortened by Truncate.
const Ellipsis = "..."

// SummaryMaxLength is the maximum length in runes of an article summary.
const SummaryMaxLength = 300

var whitespacePattern = regexp.MustCompile(`\s+`)

// CleanText strips markup from feed text.
// The input is parsed as an HTML fragment and only its text is kept, so tags
// disappear and entities are decoded. Script and style bodies are dropped.
// Runs of whitespace collapse to a single space and the result is trimmed.
// It never fails; empty input yields "".
//
//	CleanText("<p>A &amp; B</p>") // "A & B"
func CleanText(raw string) string {
	if raw == "" {
		return ""
	}

	var s string
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		s = html.UnescapeString(raw)
	} else {
		doc.Find("script, style").Remove()
		s = doc.Text()
	}

	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Truncate shortens s to at most maxRunes runes.
// When s is longer, the first maxRunes-3 runes are kept and Ellipsis is appended,
// so the result is exactly maxRunes runes long.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	if CountRunes(s) <= maxRunes {
		return s
	}
	keep := maxRunes - len(Ellipsis)
	if keep <= 0 {
		return string([]rune(s)[:maxRunes])
	}
	return string([]rune(s)[:keep]) + Ellipsis
}

// Summarize cleans raw feed text and truncates it to SummaryMaxLength.
func Summarize(raw string) string {
	return Truncate(CleanText(raw), SummaryMaxLength)
}
