package repository

import (
	"context"
	"errors"
	"time"

	"github.com/pressline/pressline/internal/search/domain/model"
)

// ErrStoreUnavailable wraps content-store failures (timeout,
// connection loss). Callers surface it as a transient server error;
// it is never downgraded to an empty result.
var ErrStoreUnavailable = errors.New("search store unavailable")

// SearchStore executes text-index operations against the content
// store. The engine never issues raw storage queries directly.
type SearchStore interface {
	// MatchWeighted runs a lexical match of the query against the
	// weighted document vector (title A, summary B, body C, keywords D)
	// and returns rank scores for matching published documents.
	MatchWeighted(ctx context.Context, query string, strategy model.SearchStrategy) ([]model.MatchScore, error)

	// Similarity returns trigram similarity scores of the query against
	// title and summary fields for published documents at or above the
	// threshold. Tolerates misspellings with zero lexical overlap.
	Similarity(ctx context.Context, query string, threshold float64) ([]model.MatchScore, error)
}

// ContentReader loads document projections for the engine.
type ContentReader interface {
	// FetchDocuments returns published documents for the given ids with
	// associations eagerly loaded in a single round trip.
	FetchDocuments(ctx context.Context, ids []int64) ([]*model.SearchableDocument, error)

	// TitlesBySimilarity returns distinct published titles ordered by
	// trigram similarity to the query, at or above the threshold.
	TitlesBySimilarity(ctx context.Context, query string, threshold float64, limit int) ([]string, error)

	// TitlesContaining returns distinct published titles containing the
	// query as a case-insensitive substring.
	TitlesContaining(ctx context.Context, query string, limit int) ([]string, error)
}

// AnalyticsRepository records executed searches and aggregates them
// into popularity rankings.
type AnalyticsRepository interface {
	// Record appends one search event with the result count it produced.
	Record(ctx context.Context, query string, resultCount int) error

	// Popular returns the most frequent queries recorded since the given
	// time, restricted to searches that produced results.
	Popular(ctx context.Context, since time.Time, limit int) ([]model.PopularSearch, error)
}
