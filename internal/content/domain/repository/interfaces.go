package repository

import (
	"context"

	"github.com/pressline/pressline/internal/content/domain/model"
)

// CategoryRepository reads category records.
type CategoryRepository interface {
	// SearchByName returns active categories whose name is at least
	// threshold-similar to the query, best match first.
	SearchByName(ctx context.Context, query string, threshold float64, limit int) ([]model.CategoryMatch, error)

	// Tree returns the full active category tree with subcategories
	// attached, ordered by display order then name.
	Tree(ctx context.Context) ([]model.CategoryNode, error)
}

// HashTagRepository reads hashtag records.
type HashTagRepository interface {
	// SearchByName returns active hashtags whose name contains the
	// query, ordered by post count descending then name.
	SearchByName(ctx context.Context, query string, limit int) ([]model.HashTag, error)

	// Trending returns the most used active hashtags.
	Trending(ctx context.Context, limit int) ([]model.HashTag, error)
}

// PostStatsReader reads post aggregates for the catalog cache.
type PostStatsReader interface {
	// CountsByStatus returns post counts grouped by workflow status.
	CountsByStatus(ctx context.Context) (map[string]int, error)
}
