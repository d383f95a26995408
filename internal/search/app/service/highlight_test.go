package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlightMarksMatchedWords(t *testing.T) {
	title, body := Highlight("Go Concurrency Patterns", "Learn about concurrency in Go programs.", []string{"concurrency"})

	assert.Contains(t, title, "<mark>Concurrency</mark>")
	assert.Contains(t, body, "<mark>concurrency</mark>")
}

func TestHighlightCaseInsensitive(t *testing.T) {
	title, _ := Highlight("DJANGO Tutorial", "", []string{"django"})
	assert.Contains(t, title, "<mark>DJANGO</mark>")
}

func TestHighlightIgnoresTrailingPunctuation(t *testing.T) {
	_, body := Highlight("", "We love Go. It is fast.", []string{"go"})
	assert.Contains(t, body, "<mark>Go.</mark>")
}

func TestHighlightTitleCappedAtTenWords(t *testing.T) {
	long := strings.Repeat("word ", 30) + "target"
	title, _ := Highlight(long, "", []string{"nomatch"})
	assert.LessOrEqual(t, len(strings.Fields(title)), titleExcerptWords)
}

func TestHighlightBodyCappedAtFiftyWords(t *testing.T) {
	long := strings.Repeat("filler ", 120)
	_, body := Highlight("", long, []string{"filler"})
	assert.LessOrEqual(t, len(strings.Fields(body)), bodyExcerptWords)
}

func TestHighlightWindowsAroundFirstMatch(t *testing.T) {
	words := make([]string, 100)
	for i := range words {
		words[i] = "filler"
	}
	words[80] = "needle"
	_, body := Highlight("", strings.Join(words, " "), []string{"needle"})

	assert.Contains(t, body, "<mark>needle</mark>")
	assert.LessOrEqual(t, len(strings.Fields(body)), bodyExcerptWords)
}

func TestHighlightNoMatchReturnsLeadingWords(t *testing.T) {
	title, _ := Highlight("Plain Title Here", "", []string{"absent"})
	assert.Equal(t, "Plain Title Here", title)
	assert.NotContains(t, title, "<mark>")
}

func TestHighlightEmptyText(t *testing.T) {
	title, body := Highlight("", "", []string{"any"})
	assert.Equal(t, "", title)
	assert.Equal(t, "", body)
}

func TestHighlightPureFunction(t *testing.T) {
	a1, b1 := Highlight("Go Guide", "All about Go.", []string{"go"})
	a2, b2 := Highlight("Go Guide", "All about Go.", []string{"go"})
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}
