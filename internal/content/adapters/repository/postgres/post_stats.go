package postgres

import (
	"context"
	"fmt"

	"github.com/pressline/pressline/internal/platform/database"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/search/domain/repository"
)

type PostStatsRepository struct {
	db     *database.DB
	logger logger.Logger
}

func NewPostStatsRepository(db *database.DB, log logger.Logger) *PostStatsRepository {
	return &PostStatsRepository{db: db, logger: log}
}

// CountsByStatus returns post counts keyed by workflow status.
func (r *PostStatsRepository) CountsByStatus(ctx context.Context) (map[string]int, error) {
	const q = `SELECT p.status, count(*) FROM posts p GROUP BY p.status`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		r.logger.Error("post counts query failed", "error", err)
		return nil, fmt.Errorf("count posts by status: %w: %w", repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan post count: %w: %w", repository.ErrStoreUnavailable, err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate post counts: %w: %w", repository.ErrStoreUnavailable, err)
	}

	return counts, nil
}
