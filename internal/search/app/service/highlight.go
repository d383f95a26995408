package service

import (
	"strings"
)

const (
	titleExcerptWords = 10
	bodyExcerptWords  = 50
)

// Highlight produces marked-up excerpts of a document's title and body
// for the given query terms. Matched words are wrapped in <mark> tags.
// It is a pure function of its inputs.
func Highlight(title, body string, terms []string) (string, string) {
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	return excerpt(title, lowered, titleExcerptWords), excerpt(body, lowered, bodyExcerptWords)
}

// excerpt takes a window of at most maxWords words around the first
// matching word and wraps every matched word in the window. With no
// match the leading words are returned unmarked.
func excerpt(text string, terms []string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	first := -1
	for i, w := range words {
		if wordMatches(w, terms) {
			first = i
			break
		}
	}

	start := 0
	if first > 0 {
		// Keep a little leading context ahead of the match.
		start = first - maxWords/4
		if start < 0 {
			start = 0
		}
	}
	end := start + maxWords
	if end > len(words) {
		end = len(words)
	}

	out := make([]string, 0, end-start)
	for _, w := range words[start:end] {
		if wordMatches(w, terms) {
			out = append(out, "<mark>"+w+"</mark>")
		} else {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

func wordMatches(word string, terms []string) bool {
	w := strings.ToLower(strings.Trim(word, ".,;:!?\"'()[]{}"))
	if w == "" {
		return false
	}
	for _, t := range terms {
		if strings.HasPrefix(w, t) {
			return true
		}
	}
	return false
}
