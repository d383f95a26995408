package service

import (
	"context"

	"github.com/pressline/pressline/internal/content/domain/model"
	"github.com/pressline/pressline/internal/content/domain/repository"
	"github.com/pressline/pressline/internal/platform/cache"
	"github.com/pressline/pressline/internal/platform/logger"
)

const trendingHashtagLimit = 10

// CatalogService serves the cached reference aggregates: the category
// tree, trending hashtags, and post counts by status.
type CatalogService struct {
	categories repository.CategoryRepository
	hashtags   repository.HashTagRepository
	stats      repository.PostStatsReader
	cache      *cache.Coordinator
	logger     logger.Logger
}

func NewCatalogService(
	categories repository.CategoryRepository,
	hashtags repository.HashTagRepository,
	stats repository.PostStatsReader,
	coordinator *cache.Coordinator,
	log logger.Logger,
) *CatalogService {
	return &CatalogService{
		categories: categories,
		hashtags:   hashtags,
		stats:      stats,
		cache:      coordinator,
		logger:     log,
	}
}

// CategoryTree returns the active category hierarchy, cached on the
// long tier. The tree changes rarely and invalidation events drop it
// eagerly when it does.
func (s *CatalogService) CategoryTree(ctx context.Context) ([]model.CategoryNode, error) {
	key := cache.BuildKey("category_tree", nil, nil)
	return cache.GetOrCompute(ctx, s.cache, key, cache.TierLong, func(ctx context.Context) ([]model.CategoryNode, error) {
		tree, err := s.categories.Tree(ctx)
		if err != nil {
			return nil, err
		}
		if tree == nil {
			tree = []model.CategoryNode{}
		}
		return tree, nil
	})
}

// TrendingHashtags returns the most used hashtags, cached on the
// medium tier.
func (s *CatalogService) TrendingHashtags(ctx context.Context) ([]model.HashTag, error) {
	key := cache.BuildKey("hashtag_trending", nil, map[string]interface{}{"limit": trendingHashtagLimit})
	return cache.GetOrCompute(ctx, s.cache, key, cache.TierMedium, func(ctx context.Context) ([]model.HashTag, error) {
		tags, err := s.hashtags.Trending(ctx, trendingHashtagLimit)
		if err != nil {
			return nil, err
		}
		if tags == nil {
			tags = []model.HashTag{}
		}
		return tags, nil
	})
}

// PostCountsByStatus returns post counts per workflow status, cached
// on the medium tier.
func (s *CatalogService) PostCountsByStatus(ctx context.Context) (map[string]int, error) {
	key := cache.BuildKey("post_counts_by_status", nil, nil)
	return cache.GetOrCompute(ctx, s.cache, key, cache.TierMedium, func(ctx context.Context) (map[string]int, error) {
		return s.stats.CountsByStatus(ctx)
	})
}

// Warm refreshes the catalog aggregates so the first reader after an
// expiry does not pay the compute cost. Failures are logged; warming
// is opportunistic.
func (s *CatalogService) Warm(ctx context.Context) {
	if _, err := s.CategoryTree(ctx); err != nil {
		s.logger.Warn("Category tree warmup failed", "error", err)
	}
	if _, err := s.TrendingHashtags(ctx); err != nil {
		s.logger.Warn("Trending hashtags warmup failed", "error", err)
	}
	if _, err := s.PostCountsByStatus(ctx); err != nil {
		s.logger.Warn("Post counts warmup failed", "error", err)
	}
}
