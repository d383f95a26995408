package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Characters outside the whitelist (word characters, Latin-extended
// and Arabic letters, whitespace) are treated as separators.
var nonWordPattern = regexp.MustCompile(`[^\w\s\x{00C0}-\x{024F}\x{0600}-\x{06FF}]+`)

// Normalize cleans raw query text and splits it into terms. Runs of
// non-word characters collapse to single spaces; terms shorter than
// two runes are dropped. Order is preserved and duplicates are kept,
// since repeated terms can matter for phrase scoring. Empty input
// yields ("", nil) and is a "no search", never an error.
func Normalize(raw string) (string, []string) {
	cleaned := nonWordPattern.ReplaceAllString(raw, " ")
	fields := strings.Fields(cleaned)
	cleaned = strings.Join(fields, " ")

	var terms []string
	for _, field := range fields {
		if utf8.RuneCountInString(field) >= 2 {
			terms = append(terms, field)
		}
	}

	return cleaned, terms
}
