package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/pressline/pressline/internal/platform/database"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/search/domain/model"
	"github.com/pressline/pressline/internal/search/domain/repository"
)

// AnalyticsRepository persists search events and aggregates them into
// the popular-searches ranking.
type AnalyticsRepository struct {
	db     *database.DB
	logger logger.Logger
}

func NewAnalyticsRepository(db *database.DB, log logger.Logger) *AnalyticsRepository {
	return &AnalyticsRepository{db: db, logger: log}
}

// Record appends one search event.
func (r *AnalyticsRepository) Record(ctx context.Context, query string, resultCount int) error {
	const q = `
		INSERT INTO search_analytics (query, results_count, searched_at)
		VALUES ($1, $2, now())`

	if _, err := r.db.ExecContext(ctx, q, query, resultCount); err != nil {
		r.logger.Error("search event insert failed", "query", query, "error", err)
		return fmt.Errorf("record search: %w: %w", repository.ErrStoreUnavailable, err)
	}
	return nil
}

// Popular returns the most searched queries since the given time.
// Searches that produced no results are excluded from the ranking.
func (r *AnalyticsRepository) Popular(ctx context.Context, since time.Time, limit int) ([]model.PopularSearch, error) {
	const q = `
		SELECT sa.query, count(*) AS search_count
		FROM search_analytics sa
		WHERE sa.searched_at >= $1
		  AND sa.results_count > 0
		GROUP BY sa.query
		ORDER BY search_count DESC, sa.query
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, q, since, limit)
	if err != nil {
		r.logger.Error("popular searches query failed", "error", err)
		return nil, fmt.Errorf("popular searches: %w: %w", repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var popular []model.PopularSearch
	for rows.Next() {
		var p model.PopularSearch
		if err := rows.Scan(&p.Query, &p.SearchCount); err != nil {
			return nil, fmt.Errorf("scan popular search: %w: %w", repository.ErrStoreUnavailable, err)
		}
		popular = append(popular, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate popular searches: %w: %w", repository.ErrStoreUnavailable, err)
	}

	return popular, nil
}
