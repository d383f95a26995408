package service

import (
	"context"
	"strconv"
	"time"

	"github.com/pressline/pressline/internal/platform/cache"
	"github.com/pressline/pressline/internal/search/domain/model"
)

const (
	popularSearchWindow = 30 * 24 * time.Hour
	defaultPopularLimit = 10
	trackTimeout        = 2 * time.Second
)

// trackSearch records a search event. Tracking is fire-and-forget
// decoration of the search path: a failed insert is logged and never
// fails the search that triggered it.
func (s *PostSearchService) trackSearch(ctx context.Context, cleaned string, resultCount int) {
	if s.analytics == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), trackTimeout)
	defer cancel()

	if err := s.analytics.Record(ctx, cleaned, resultCount); err != nil {
		s.logger.Warn("Search tracking failed", "query", cleaned, "error", err)
	}
}

// PopularSearches returns the most searched queries over the last
// thirty days, most frequent first. The ranking is cached on the long
// tier.
func (s *PostSearchService) PopularSearches(ctx context.Context, limit int) ([]model.PopularSearch, error) {
	if limit <= 0 {
		limit = defaultPopularLimit
	}
	if s.analytics == nil {
		return []model.PopularSearch{}, nil
	}

	key := cache.BuildKey("popular_searches", nil, map[string]interface{}{
		"limit": strconv.Itoa(limit),
	})

	return cache.GetOrCompute(ctx, s.cache, key, cache.TierLong, func(ctx context.Context) ([]model.PopularSearch, error) {
		since := time.Now().Add(-popularSearchWindow)
		popular, err := s.analytics.Popular(ctx, since, limit)
		if err != nil {
			return nil, err
		}
		if popular == nil {
			popular = []model.PopularSearch{}
		}
		return popular, nil
	})
}
