// Package sanitize normalizes raw page content into short plain text suitable
// for inclusion in an LLM prompt.
package sanitize

import (
	"regexp"
	"strings"
)

const (
	// MaxContentLength is the truncation limit in runes.
	MaxContentLength = 300

	// Ellipsis is appended when content is cut at a word boundary.
	Ellipsis = "..."

	// sentenceWindow is the fraction of the truncation limit, counted from the
	// end, in which a sentence-ending cut is preferred over a word cut.
	sentenceWindow = 0.2
)

var (
	tagPattern = regexp.MustCompile(`<[^>]*>`)

	// Runs of whitespace containing at least two newlines collapse to one
	// newline; horizontal runs collapse to one space.
	blankLinePattern  = regexp.MustCompile(`\s*\n\s*\n\s*`)
	horizontalPattern = regexp.MustCompile(`[ \t\f\v]+`)
	lineEdgePattern   = regexp.MustCompile(` ?\n ?`)

	// Allowed characters: letters, digits, underscore, whitespace, and basic
	// punctuation. Everything else is dropped.
	disallowedPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:'"()\[\]{}\-–—/\\%&@#$+*=]`)

	entityReplacer = strings.NewReplacer(
		"&nbsp;", " ",
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&apos;", "'",
	)
)

// Clean strips markup and normalizes whitespace from raw page content. It is
// deterministic and total: any input yields a plain-text string of at most
// MaxContentLength runes (plus the ellipsis marker when a word cut was made),
// and invalid or empty input yields the empty string.
func Clean(raw string) string {
	s := tagPattern.ReplaceAllString(raw, " ")
	s = entityReplacer.Replace(s)

	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = blankLinePattern.ReplaceAllString(s, "\n")
	s = horizontalPattern.ReplaceAllString(s, " ")
	s = lineEdgePattern.ReplaceAllString(s, "\n")

	s = strings.TrimSpace(s)
	s = disallowedPattern.ReplaceAllString(s, "")

	return truncate(s, MaxContentLength)
}

// truncate cuts s to at most limit runes. It prefers to cut immediately after
// the last sentence-ending punctuation mark in the final 20% of the window;
// failing that it cuts at the last whitespace boundary and appends an
// ellipsis marker, so content is never cut mid-word or mid-sentence.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	window := runes[:limit]

	minSentenceEnd := limit - int(float64(limit)*sentenceWindow)
	for i := limit - 1; i >= minSentenceEnd; i-- {
		switch window[i] {
		case '.', '!', '?':
			return string(window[:i+1])
		}
	}

	for i := limit - 1; i > 0; i-- {
		if isSpace(window[i]) {
			return strings.TrimSpace(string(window[:i])) + Ellipsis
		}
	}
	return string(window) + Ellipsis
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
