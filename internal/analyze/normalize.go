// Package analyze implements the email analysis pipeline: text
// normalization, tone scoring, keyword categorization, smart reply
// synthesis, and the per-email orchestration that ties them to the
// external model oracles.
package analyze

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	markupRe     = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Word characters plus the punctuation worth keeping for summarization.
	unsafeRe = regexp.MustCompile(`[^\w\s.,!?-]`)
)

// IsMarkup reports whether text looks like HTML. Cheap pre-check used to
// pick the summarization input source.
func IsMarkup(text string) bool {
	return text != "" && markupRe.MatchString(text)
}

// Normalize strips markup, collapses whitespace, drops characters outside
// the safe set, and trims. It never fails; empty input yields "".
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	if IsMarkup(text) {
		text = stripMarkup(text)
	}
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = unsafeRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func stripMarkup(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// goquery is lenient; if it still fails, a blunt tag strip will do.
		return markupRe.ReplaceAllString(html, " ")
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
