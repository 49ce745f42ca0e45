package matcher

import (
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// editionPatterns are applied in order; removing one marker can expose text
// that a later pattern matches.
var editionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*\(.*?edition\)\s*`),
	regexp.MustCompile(`(?i)\s*\((remaster(?:ed)?|\d{4}\s*remaster(?:ed)?)\)\s*`),
	regexp.MustCompile(`(?i)\s*\(deluxe\)\s*`),
	regexp.MustCompile(`(?i)\s*\(expanded\)\s*`),
	regexp.MustCompile(`(?i)\s*\(demos.*?\)\s*`),
	regexp.MustCompile(`(?i)\s*\(explicit\)\s*`),
}

// NormalizeArtist canonicalises an artist name for comparison: HTML entities
// are decoded, the text is lower-cased and surrounding whitespace trimmed.
func NormalizeArtist(raw string) string {
	return untilStable(raw, normalizeText)
}

// NormalizeTitle canonicalises an album title in the same way as
// NormalizeArtist, and additionally strips common edition markers such as
// "(Deluxe Edition)" or "(2011 Remastered)". Other parentheticals are kept.
func NormalizeTitle(raw string) string {
	return untilStable(raw, func(s string) string {
		s = decode(s)
		for _, pattern := range editionPatterns {
			s = pattern.ReplaceAllString(s, "")
		}
		return strings.TrimSpace(lower(s))
	})
}

func normalizeText(s string) string {
	return strings.TrimSpace(lower(decode(s)))
}

func decode(s string) string {
	return norm.NFC.String(html.UnescapeString(s))
}

// lower creates a new caser each time, as casers can't be shared between goroutines
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// untilStable applies step until it stops changing the string. After the
// first pass every change decodes an entity, strips a marker or trims, so
// each further pass that changes s also shortens it.
func untilStable(s string, step func(string) string) string {
	for {
		next := step(s)
		if next == s {
			return s
		}
		s = next
	}
}
