package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/pressline/pressline/internal/content/domain/model"
	"github.com/pressline/pressline/internal/platform/database"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/search/domain/repository"
)

type HashTagRepository struct {
	db     *database.DB
	logger logger.Logger
}

func NewHashTagRepository(db *database.DB, log logger.Logger) *HashTagRepository {
	return &HashTagRepository{db: db, logger: log}
}

// SearchByName matches active hashtags by case-insensitive substring.
// A leading '#' on the query is stripped before matching, and LIKE
// metacharacters in the query match literally.
func (r *HashTagRepository) SearchByName(ctx context.Context, query string, limit int) ([]model.HashTag, error) {
	query = strings.TrimPrefix(query, "#")

	const q = `
		SELECT h.id, h.name, h.post_count, h.is_active
		FROM hashtags h
		WHERE h.is_active
		  AND h.name ILIKE '%' || $1 || '%'
		ORDER BY h.post_count DESC, h.name
		LIMIT $2`

	return r.queryTags(ctx, "search_hashtags", q, escapeLike(query), limit)
}

// Trending returns the most used active hashtags.
func (r *HashTagRepository) Trending(ctx context.Context, limit int) ([]model.HashTag, error) {
	const q = `
		SELECT h.id, h.name, h.post_count, h.is_active
		FROM hashtags h
		WHERE h.is_active AND h.post_count > 0
		ORDER BY h.post_count DESC, h.name
		LIMIT $1`

	return r.queryTags(ctx, "trending_hashtags", q, limit)
}

func (r *HashTagRepository) queryTags(ctx context.Context, operation, query string, args ...interface{}) ([]model.HashTag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("hashtag lookup failed", "operation", operation, "error", err)
		return nil, fmt.Errorf("%s: %w: %w", operation, repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var tags []model.HashTag
	for rows.Next() {
		var t model.HashTag
		if err := rows.Scan(&t.ID, &t.Name, &t.PostCount, &t.IsActive); err != nil {
			return nil, fmt.Errorf("scan hashtag: %w: %w", repository.ErrStoreUnavailable, err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hashtags: %w: %w", repository.ErrStoreUnavailable, err)
	}

	return tags, nil
}
