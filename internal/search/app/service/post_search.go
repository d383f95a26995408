package service

import (
	"context"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/pressline/pressline/internal/platform/cache"
	"github.com/pressline/pressline/internal/platform/config"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/platform/metrics"
	"github.com/pressline/pressline/internal/search/domain/model"
	"github.com/pressline/pressline/internal/search/domain/repository"
)

const minQueryLength = 2

// PostSearchService runs the multi-pass post search: a phrase pass and
// per-term plain passes over the weighted document vector, plus a
// trigram similarity pass, unioned by document with the best score
// winning.
type PostSearchService struct {
	store     repository.SearchStore
	reader    repository.ContentReader
	analytics repository.AnalyticsRepository
	cache     *cache.Coordinator
	cfg       config.SearchConfig
	logger    logger.Logger
	metrics   *metrics.Metrics
}

func NewPostSearchService(
	store repository.SearchStore,
	reader repository.ContentReader,
	analytics repository.AnalyticsRepository,
	coordinator *cache.Coordinator,
	cfg config.SearchConfig,
	log logger.Logger,
	m *metrics.Metrics,
) *PostSearchService {
	return &PostSearchService{
		store:     store,
		reader:    reader,
		analytics: analytics,
		cache:     coordinator,
		cfg:       cfg,
		logger:    log,
		metrics:   m,
	}
}

// Search executes a post search. Queries shorter than two characters
// after normalization return an empty page without touching the store.
// Result pages are cached on the short tier; identical queries within
// the TTL are answered from cache.
func (s *PostSearchService) Search(ctx context.Context, query *model.SearchQuery) (*model.SearchResultPage, error) {
	start := time.Now()

	query.Cleaned, query.Terms = Normalize(query.Raw)
	s.applyDefaults(query)

	if utf8.RuneCountInString(query.Cleaned) < minQueryLength {
		return model.EmptyResultPage(query.Page, query.PerPage), nil
	}

	key := s.cacheKey(query)
	page, err := cache.GetOrCompute(ctx, s.cache, key, cache.TierShort, func(ctx context.Context) (*model.SearchResultPage, error) {
		return s.performSearch(ctx, query)
	})
	if err == nil {
		s.trackSearch(ctx, query.Cleaned, page.TotalResults)
	}

	if s.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		s.metrics.SearchesTotal.WithLabelValues("post", status).Inc()
		s.metrics.SearchDuration.WithLabelValues("post").Observe(time.Since(start).Seconds())
		if err == nil {
			s.metrics.SearchResultCount.WithLabelValues("post").Observe(float64(page.TotalResults))
		}
	}

	return page, err
}

func (s *PostSearchService) applyDefaults(query *model.SearchQuery) {
	if query.Strategy == "" {
		query.Strategy = model.StrategyPhrase
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage <= 0 {
		query.PerPage = s.cfg.DefaultPerPage
	}
	if query.PerPage > s.cfg.MaxPerPage {
		query.PerPage = s.cfg.MaxPerPage
	}
}

func (s *PostSearchService) cacheKey(query *model.SearchQuery) string {
	kwargs := query.Filters.CacheArgs()
	kwargs["strategy"] = string(query.Strategy)
	kwargs["page"] = query.Page
	kwargs["per_page"] = query.PerPage
	return cache.BuildKey("search_posts", []interface{}{query.Cleaned}, kwargs)
}

func (s *PostSearchService) performSearch(ctx context.Context, query *model.SearchQuery) (*model.SearchResultPage, error) {
	ranks := make(map[int64]float64)
	sims := make(map[int64]float64)

	phrase, err := s.store.MatchWeighted(ctx, query.Cleaned, query.Strategy)
	if err != nil {
		return nil, err
	}
	mergeScores(ranks, phrase)

	// Per-term passes recover documents the phrase pass misses when
	// terms appear apart or out of order.
	if len(query.Terms) > 1 {
		for _, term := range query.Terms {
			scores, err := s.store.MatchWeighted(ctx, term, model.StrategyPlain)
			if err != nil {
				return nil, err
			}
			mergeScores(ranks, scores)
		}
	}

	fuzzy, err := s.store.Similarity(ctx, query.Cleaned, s.cfg.SimilarityThreshold)
	if err != nil {
		return nil, err
	}
	mergeScores(sims, fuzzy)

	ids := unionIDs(ranks, sims)
	docs, err := s.reader.FetchDocuments(ctx, ids)
	if err != nil {
		return nil, err
	}

	filtered := docs[:0:0]
	for _, doc := range docs {
		if query.Filters.Matches(doc) {
			filtered = append(filtered, doc)
		}
	}

	results := make([]model.RankedResult, 0, len(filtered))
	for _, doc := range filtered {
		rank := ranks[doc.ID]
		sim := sims[doc.ID]
		score := rank
		if sim > score {
			score = sim
		}
		results = append(results, model.RankedResult{
			Document:   doc,
			Score:      score,
			Rank:       rank,
			Similarity: sim,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Document.ViewCount != b.Document.ViewCount {
			return a.Document.ViewCount > b.Document.ViewCount
		}
		if !a.Document.PublishedAt.Equal(b.Document.PublishedAt) {
			return a.Document.PublishedAt.After(b.Document.PublishedAt)
		}
		return a.Document.ID > b.Document.ID
	})

	total := len(results)
	facets := BuildFacets(filtered)
	pageResults := paginate(results, query.Page, query.PerPage)

	for i := range pageResults {
		doc := pageResults[i].Document
		pageResults[i].TitleExcerpt, pageResults[i].BodyExcerpt = Highlight(doc.Title, doc.Body, query.Terms)
	}

	return &model.SearchResultPage{
		Query:        query.Cleaned,
		TotalResults: total,
		Page:         query.Page,
		PerPage:      query.PerPage,
		Results:      pageResults,
		Facets:       facets,
		Suggestions:  s.suggestions(ctx, query.Cleaned),
	}, nil
}

func mergeScores(into map[int64]float64, scores []model.MatchScore) {
	for _, ms := range scores {
		if ms.Score > into[ms.DocID] {
			into[ms.DocID] = ms.Score
		}
	}
}

func unionIDs(ranks, sims map[int64]float64) []int64 {
	seen := make(map[int64]struct{}, len(ranks)+len(sims))
	ids := make([]int64, 0, len(ranks)+len(sims))
	for id := range ranks {
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for id := range sims {
		if _, ok := seen[id]; !ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func paginate(results []model.RankedResult, page, perPage int) []model.RankedResult {
	start := (page - 1) * perPage
	if start >= len(results) {
		return []model.RankedResult{}
	}
	end := start + perPage
	if end > len(results) {
		end = len(results)
	}
	return results[start:end]
}

// suggestions proposes alternative queries off title similarity. It is
// best-effort decoration of the result page: lookup failures are logged
// and yield an empty list, never an error.
func (s *PostSearchService) suggestions(ctx context.Context, cleaned string) []string {
	if utf8.RuneCountInString(cleaned) < 3 {
		return []string{}
	}

	titles, err := s.reader.TitlesBySimilarity(ctx, cleaned, s.cfg.SuggestionThreshold, suggestionLimit)
	if err != nil {
		s.logger.Warn("Suggestion lookup failed", "query", cleaned, "error", err)
		return []string{}
	}

	suggestions := filterSuggestions(titles, cleaned, suggestionLimit)
	if s.metrics != nil && len(suggestions) > 0 {
		s.metrics.SuggestionsServed.WithLabelValues("suggestion").Add(float64(len(suggestions)))
	}
	return suggestions
}

// Suggest returns alternative query suggestions for raw input, for
// callers that want suggestions without running a full search.
func (s *PostSearchService) Suggest(ctx context.Context, input string) []string {
	cleaned, _ := Normalize(input)
	return s.suggestions(ctx, cleaned)
}

// Autocomplete returns title completions for a typed prefix. Inputs
// under two characters return an empty list. Completions are cached on
// the medium tier.
func (s *PostSearchService) Autocomplete(ctx context.Context, input string) ([]string, error) {
	cleaned, _ := Normalize(input)
	if utf8.RuneCountInString(cleaned) < minQueryLength {
		return []string{}, nil
	}

	limit := s.cfg.AutocompleteLimit
	key := cache.BuildKey("autocomplete", []interface{}{cleaned}, map[string]interface{}{
		"limit": strconv.Itoa(limit),
	})

	completions, err := cache.GetOrCompute(ctx, s.cache, key, cache.TierMedium, func(ctx context.Context) ([]string, error) {
		titles, err := s.reader.TitlesContaining(ctx, cleaned, limit)
		if err != nil {
			return nil, err
		}
		titles = dedupeTitles(titles)
		if len(titles) > limit {
			titles = titles[:limit]
		}
		return titles, nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil && len(completions) > 0 {
		s.metrics.SuggestionsServed.WithLabelValues("autocomplete").Add(float64(len(completions)))
	}
	return completions, nil
}
