package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/pressline/pressline/internal/platform/database"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/platform/metrics"
	"github.com/pressline/pressline/internal/search/domain/model"
	"github.com/pressline/pressline/internal/search/domain/repository"
)

// SearchStore runs full-text and trigram matching against the posts
// table. Documents are weighted title > summary > body > keywords and
// only published posts participate.
type SearchStore struct {
	db      *database.DB
	logger  logger.Logger
	metrics *metrics.Metrics
}

func NewSearchStore(db *database.DB, log logger.Logger, m *metrics.Metrics) *SearchStore {
	return &SearchStore{db: db, logger: log, metrics: m}
}

const weightedVector = `
	setweight(to_tsvector($1, coalesce(p.title, '')), 'A') ||
	setweight(to_tsvector($1, coalesce(p.summary, '')), 'B') ||
	setweight(to_tsvector($1, coalesce(p.body, '')), 'C') ||
	setweight(to_tsvector($1, coalesce(p.keywords, '')), 'D')`

// MatchWeighted scores published posts against the query using the
// weighted document vector. The strategy picks the tsquery parser:
// phrase matching requires terms adjacent and in order, plain matching
// ANDs the terms independently.
func (s *SearchStore) MatchWeighted(ctx context.Context, query string, strategy model.SearchStrategy) ([]model.MatchScore, error) {
	parser := "plainto_tsquery"
	if strategy == model.StrategyPhrase {
		parser = "phraseto_tsquery"
	}

	q := fmt.Sprintf(`
		SELECT p.id,
		       ts_rank(%s, %s($1, $2)) AS rank
		FROM posts p
		WHERE p.status = 'published'
		  AND (%s) @@ %s($1, $2)
		ORDER BY rank DESC`,
		weightedVector, parser, weightedVector, parser)

	return s.queryScores(ctx, "match_weighted", q, s.db.SearchConfig(), query)
}

// Similarity scores published posts by the greater of title and
// summary trigram similarity, keeping rows at or above the threshold.
func (s *SearchStore) Similarity(ctx context.Context, query string, threshold float64) ([]model.MatchScore, error) {
	q := `
		SELECT p.id,
		       GREATEST(similarity(p.title, $1), similarity(coalesce(p.summary, ''), $1)) AS sim
		FROM posts p
		WHERE p.status = 'published'
		  AND GREATEST(similarity(p.title, $1), similarity(coalesce(p.summary, ''), $1)) >= $2
		ORDER BY sim DESC`

	return s.queryScores(ctx, "similarity", q, query, threshold)
}

func (s *SearchStore) queryScores(ctx context.Context, operation, query string, args ...interface{}) ([]model.MatchScore, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if s.metrics != nil {
		s.metrics.DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.DBQueryErrors.WithLabelValues(operation).Inc()
		}
		s.logger.Error("search query failed", "operation", operation, "error", err)
		return nil, fmt.Errorf("%s: %w: %w", operation, repository.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var scores []model.MatchScore
	for rows.Next() {
		var ms model.MatchScore
		if err := rows.Scan(&ms.DocID, &ms.Score); err != nil {
			return nil, fmt.Errorf("scan %s row: %w: %w", operation, repository.ErrStoreUnavailable, err)
		}
		scores = append(scores, ms)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w: %w", operation, repository.ErrStoreUnavailable, err)
	}

	return scores, nil
}
