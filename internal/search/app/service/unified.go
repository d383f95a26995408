package service

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	contentmodel "github.com/pressline/pressline/internal/content/domain/model"
	contentrepo "github.com/pressline/pressline/internal/content/domain/repository"
	"github.com/pressline/pressline/internal/platform/cache"
	"github.com/pressline/pressline/internal/platform/config"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/platform/metrics"
	"github.com/pressline/pressline/internal/search/domain/model"
)

// ErrQueryTooShort rejects unified searches whose normalized query is
// under two characters. Unlike the post search, which answers such
// queries with an empty page, the unified entry point treats them as
// invalid requests.
var ErrQueryTooShort = errors.New("search query too short")

// UnifiedResult bundles post results with matching categories and
// hashtags for a single query.
type UnifiedResult struct {
	Query        string                       `json:"query"`
	Posts        *model.SearchResultPage      `json:"posts"`
	Categories   []contentmodel.CategoryMatch `json:"categories"`
	Hashtags     []contentmodel.HashTag       `json:"hashtags"`
	TotalResults int                          `json:"total_results"`
}

// UnifiedSearchService fans a query out across posts, categories, and
// hashtags and caches the combined envelope.
type UnifiedSearchService struct {
	posts      *PostSearchService
	categories contentrepo.CategoryRepository
	hashtags   contentrepo.HashTagRepository
	cache      *cache.Coordinator
	cfg        config.SearchConfig
	logger     logger.Logger
	metrics    *metrics.Metrics
}

func NewUnifiedSearchService(
	posts *PostSearchService,
	categories contentrepo.CategoryRepository,
	hashtags contentrepo.HashTagRepository,
	coordinator *cache.Coordinator,
	cfg config.SearchConfig,
	log logger.Logger,
	m *metrics.Metrics,
) *UnifiedSearchService {
	return &UnifiedSearchService{
		posts:      posts,
		categories: categories,
		hashtags:   hashtags,
		cache:      coordinator,
		cfg:        cfg,
		logger:     log,
		metrics:    m,
	}
}

// Search runs the unified search. The whole response is cached on the
// short tier keyed by the normalized query, filters, and pagination.
func (s *UnifiedSearchService) Search(ctx context.Context, query *model.SearchQuery) (*UnifiedResult, error) {
	start := time.Now()

	cleaned, _ := Normalize(query.Raw)
	if utf8.RuneCountInString(cleaned) < minQueryLength {
		return nil, ErrQueryTooShort
	}

	// Pagination defaults must be settled before the key is built so
	// an omitted page and an explicit page=1 share a cache entry.
	s.posts.applyDefaults(query)

	kwargs := query.Filters.CacheArgs()
	kwargs["page"] = query.Page
	kwargs["per_page"] = query.PerPage
	key := cache.BuildKey("unified_search", []interface{}{cleaned}, kwargs)

	result, err := cache.GetOrCompute(ctx, s.cache, key, cache.TierShort, func(ctx context.Context) (*UnifiedResult, error) {
		return s.perform(ctx, query, cleaned)
	})

	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.SearchesTotal.WithLabelValues("unified", status).Inc()
		s.metrics.SearchDuration.WithLabelValues("unified").Observe(time.Since(start).Seconds())
	}

	return result, err
}

func (s *UnifiedSearchService) perform(ctx context.Context, query *model.SearchQuery, cleaned string) (*UnifiedResult, error) {
	posts, err := s.posts.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	categories, err := s.searchCategories(ctx, cleaned)
	if err != nil {
		return nil, err
	}

	hashtags, err := s.searchHashtags(ctx, cleaned)
	if err != nil {
		return nil, err
	}

	return &UnifiedResult{
		Query:        cleaned,
		Posts:        posts,
		Categories:   categories,
		Hashtags:     hashtags,
		TotalResults: posts.TotalResults + len(categories) + len(hashtags),
	}, nil
}

func (s *UnifiedSearchService) searchCategories(ctx context.Context, cleaned string) ([]contentmodel.CategoryMatch, error) {
	key := cache.BuildKey("category_search", []interface{}{cleaned}, nil)
	return cache.GetOrCompute(ctx, s.cache, key, cache.TierMedium, func(ctx context.Context) ([]contentmodel.CategoryMatch, error) {
		matches, err := s.categories.SearchByName(ctx, cleaned, s.cfg.SimilarityThreshold, s.cfg.SecondaryResultLimit)
		if err != nil {
			return nil, err
		}
		if matches == nil {
			matches = []contentmodel.CategoryMatch{}
		}
		return matches, nil
	})
}

func (s *UnifiedSearchService) searchHashtags(ctx context.Context, cleaned string) ([]contentmodel.HashTag, error) {
	key := cache.BuildKey("hashtag_search", []interface{}{cleaned}, nil)
	return cache.GetOrCompute(ctx, s.cache, key, cache.TierMedium, func(ctx context.Context) ([]contentmodel.HashTag, error) {
		tags, err := s.hashtags.SearchByName(ctx, cleaned, s.cfg.SecondaryResultLimit)
		if err != nil {
			return nil, err
		}
		if tags == nil {
			tags = []contentmodel.HashTag{}
		}
		return tags, nil
	})
}
