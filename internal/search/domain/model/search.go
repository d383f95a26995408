package model

import (
	"fmt"
	"time"
)

// SearchStrategy selects how the query text is matched against the
// weighted document vector.
type SearchStrategy string

const (
	StrategyPhrase SearchStrategy = "phrase"
	StrategyPlain  SearchStrategy = "plain"
	StrategyFuzzy  SearchStrategy = "fuzzy"
)

// Field weights of the document vector. Title matches dominate over
// summary and body; keywords weigh least.
const (
	WeightTitle    = 1.0
	WeightSummary  = 0.4
	WeightBody     = 0.2
	WeightKeywords = 0.1
)

// Ref is an association rendered as id plus display name, loaded
// eagerly with the document so facet building needs no follow-up
// queries.
type Ref struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SearchableDocument is a read projection of a published post,
// immutable for the duration of one query.
type SearchableDocument struct {
	ID           int64     `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Summary      string    `json:"summary"`
	Body         string    `json:"body"`
	Keywords     string    `json:"keywords"`
	Status       string    `json:"status"`
	Language     string    `json:"language"`
	Featured     bool      `json:"featured"`
	PublishedAt  time.Time `json:"published_at"`
	ViewCount    int64     `json:"view_count"`
	Categories   []Ref     `json:"categories"`
	HashtagIDs   []int64   `json:"hashtag_ids"`
	Type         Ref       `json:"type"`
	Organization Ref       `json:"organization"`
}

// CacheRef renders the document as a cache-key fragment.
func (d *SearchableDocument) CacheRef() string {
	return fmt.Sprintf("Post_%d", d.ID)
}

// SearchQuery is built per request and discarded after use.
type SearchQuery struct {
	Raw      string
	Cleaned  string
	Terms    []string
	Strategy SearchStrategy
	Filters  SearchFilters
	Page     int
	PerPage  int
}

// MatchScore pairs a document identifier with a score from one
// retrieval pass.
type MatchScore struct {
	DocID int64
	Score float64
}

// RankedResult is a document plus its computed relevance and
// highlighted excerpts.
type RankedResult struct {
	Document     *SearchableDocument `json:"document"`
	Score        float64             `json:"score"`
	Rank         float64             `json:"rank"`
	Similarity   float64             `json:"similarity"`
	TitleExcerpt string              `json:"title_excerpt"`
	BodyExcerpt  string              `json:"body_excerpt"`
}

// FacetBucket is one grouping key with its document count.
type FacetBucket struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DateFacetBucket groups documents by publication month.
type DateFacetBucket struct {
	Month time.Time `json:"month"`
	Count int       `json:"count"`
}

// FacetSet is the breakdown of the filtered, pre-pagination matched
// set across every facet dimension.
type FacetSet struct {
	Categories    []FacetBucket     `json:"categories"`
	Types         []FacetBucket     `json:"post_types"`
	Organizations []FacetBucket     `json:"organizations"`
	Dates         []DateFacetBucket `json:"dates"`
}

// SearchResultPage is one page of ranked post results with pagination
// metadata, facets, and suggestions.
type SearchResultPage struct {
	Query        string         `json:"query"`
	TotalResults int            `json:"total_results"`
	Page         int            `json:"page"`
	PerPage      int            `json:"per_page"`
	Results      []RankedResult `json:"results"`
	Facets       FacetSet       `json:"facets"`
	Suggestions  []string       `json:"suggestions"`
}

// EmptyResultPage is what a too-short query produces: a zero-result
// success, distinct from an invalid-request error at the facade.
func EmptyResultPage(page, perPage int) *SearchResultPage {
	return &SearchResultPage{
		TotalResults: 0,
		Page:         page,
		PerPage:      perPage,
		Results:      []RankedResult{},
		Suggestions:  []string{},
	}
}
