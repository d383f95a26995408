package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressline/pressline/internal/platform/cache"
	"github.com/pressline/pressline/internal/platform/config"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/search/domain/model"
	"github.com/pressline/pressline/internal/search/domain/repository"
)

type fakeStore struct {
	mu         sync.Mutex
	matchCalls int
	simCalls   int
	matchFn    func(query string, strategy model.SearchStrategy) ([]model.MatchScore, error)
	simFn      func(query string, threshold float64) ([]model.MatchScore, error)
}

func (f *fakeStore) MatchWeighted(_ context.Context, query string, strategy model.SearchStrategy) ([]model.MatchScore, error) {
	f.mu.Lock()
	f.matchCalls++
	f.mu.Unlock()
	if f.matchFn == nil {
		return nil, nil
	}
	return f.matchFn(query, strategy)
}

func (f *fakeStore) Similarity(_ context.Context, query string, threshold float64) ([]model.MatchScore, error) {
	f.mu.Lock()
	f.simCalls++
	f.mu.Unlock()
	if f.simFn == nil {
		return nil, nil
	}
	return f.simFn(query, threshold)
}

type fakeReader struct {
	docs       map[int64]*model.SearchableDocument
	similar    []string
	similarErr error
	containing []string
}

func (f *fakeReader) FetchDocuments(_ context.Context, ids []int64) ([]*model.SearchableDocument, error) {
	var docs []*model.SearchableDocument
	for _, id := range ids {
		if doc, ok := f.docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (f *fakeReader) TitlesBySimilarity(context.Context, string, float64, int) ([]string, error) {
	if f.similarErr != nil {
		return nil, f.similarErr
	}
	return f.similar, nil
}

func (f *fakeReader) TitlesContaining(context.Context, string, int) ([]string, error) {
	return f.containing, nil
}

type recordedSearch struct {
	query string
	count int
}

type fakeAnalytics struct {
	mu           sync.Mutex
	recorded     []recordedSearch
	recordErr    error
	popular      []model.PopularSearch
	popularErr   error
	popularCalls int
}

func (f *fakeAnalytics) Record(_ context.Context, query string, resultCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, recordedSearch{query: query, count: resultCount})
	return nil
}

func (f *fakeAnalytics) Popular(_ context.Context, _ time.Time, _ int) ([]model.PopularSearch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popularCalls++
	if f.popularErr != nil {
		return nil, f.popularErr
	}
	return f.popular, nil
}

type memBackend struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemBackend() *memBackend {
	return &memBackend{entries: make(map[string][]byte)}
}

func (m *memBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return data, nil
}

func (m *memBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *memBackend) DeleteByPattern(_ context.Context, pattern string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	count := 0
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			count++
		}
	}
	return count, nil
}

func (m *memBackend) Health(context.Context) error { return nil }
func (m *memBackend) Close() error                 { return nil }

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		DefaultPerPage:       20,
		MaxPerPage:           100,
		SimilarityThreshold:  0.3,
		SuggestionThreshold:  0.2,
		AutocompleteLimit:    10,
		SecondaryResultLimit: 5,
	}
}

func newTestService(store repository.SearchStore, reader repository.ContentReader) *PostSearchService {
	return newTestServiceWithAnalytics(store, reader, &fakeAnalytics{})
}

func newTestServiceWithAnalytics(store repository.SearchStore, reader repository.ContentReader, analytics repository.AnalyticsRepository) *PostSearchService {
	coordinator := cache.NewCoordinator(newMemBackend(), logger.NewNop(), nil)
	return NewPostSearchService(store, reader, analytics, coordinator, testSearchConfig(), logger.NewNop(), nil)
}

func publishedDoc(id int64, title string, views int64, published time.Time) *model.SearchableDocument {
	return &model.SearchableDocument{
		ID:          id,
		Slug:        strings.ToLower(strings.ReplaceAll(title, " ", "-")),
		Title:       title,
		Body:        "Body text about " + title,
		Status:      "published",
		Language:    "en",
		PublishedAt: published,
		ViewCount:   views,
		Categories:  []model.Ref{{ID: 1, Name: "Engineering"}},
		Type:        model.Ref{ID: 1, Name: "Article"},
		Organization: model.Ref{
			ID: 1, Name: "Pressline",
		},
	}
}

func TestSearchShortQueryReturnsEmptyWithoutStoreCall(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, &fakeReader{})

	page, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "a"})
	require.NoError(t, err)

	assert.Equal(t, 0, page.TotalResults)
	assert.Empty(t, page.Results)
	assert.Equal(t, 0, store.matchCalls)
	assert.Equal(t, 0, store.simCalls)
}

func TestSearchOrdersByScoreThenPopularityThenRecency(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	reader := &fakeReader{docs: map[int64]*model.SearchableDocument{
		1: publishedDoc(1, "Django Tutorial", 100, now.Add(-48*time.Hour)),
		2: publishedDoc(2, "Django Tutorial Deep Dive", 500, now.Add(-24*time.Hour)),
		3: publishedDoc(3, "Django Basics", 500, now),
	}}
	store := &fakeStore{
		matchFn: func(string, model.SearchStrategy) ([]model.MatchScore, error) {
			return []model.MatchScore{
				{DocID: 1, Score: 0.9},
				{DocID: 2, Score: 0.9},
				{DocID: 3, Score: 0.9},
			}, nil
		},
	}
	svc := newTestService(store, reader)

	page, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "django"})
	require.NoError(t, err)
	require.Len(t, page.Results, 3)

	// Equal scores: views break the tie, then recency.
	assert.Equal(t, int64(3), page.Results[0].Document.ID)
	assert.Equal(t, int64(2), page.Results[1].Document.ID)
	assert.Equal(t, int64(1), page.Results[2].Document.ID)
}

func TestSearchCombinesScoresByMax(t *testing.T) {
	now := time.Now().UTC()
	reader := &fakeReader{docs: map[int64]*model.SearchableDocument{
		1: publishedDoc(1, "Go Concurrency", 10, now),
	}}
	store := &fakeStore{
		matchFn: func(string, model.SearchStrategy) ([]model.MatchScore, error) {
			return []model.MatchScore{{DocID: 1, Score: 0.5}}, nil
		},
		simFn: func(string, float64) ([]model.MatchScore, error) {
			return []model.MatchScore{{DocID: 1, Score: 0.8}}, nil
		},
	}
	svc := newTestService(store, reader)

	page, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "concurency"})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)

	result := page.Results[0]
	assert.Equal(t, 0.8, result.Score, "combined score is the max of rank and similarity, not their sum")
	assert.Equal(t, 0.5, result.Rank)
	assert.Equal(t, 0.8, result.Similarity)
}

func TestSearchSimilarityPassRecoversMisspelling(t *testing.T) {
	now := time.Now().UTC()
	reader := &fakeReader{docs: map[int64]*model.SearchableDocument{
		5: publishedDoc(5, "Django Tutorial", 10, now),
	}}
	store := &fakeStore{
		simFn: func(string, float64) ([]model.MatchScore, error) {
			return []model.MatchScore{{DocID: 5, Score: 0.45}}, nil
		},
	}
	svc := newTestService(store, reader)

	page, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "Djang"})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, int64(5), page.Results[0].Document.ID)
	assert.Equal(t, 0.0, page.Results[0].Rank)
}

func TestSearchFiltersExcludeFromResultsTotalsAndFacets(t *testing.T) {
	now := time.Now().UTC()
	english := publishedDoc(1, "Go Guide", 10, now)
	arabic := publishedDoc(2, "Go Guide Arabic", 10, now)
	arabic.Language = "ar"
	arabic.Categories = []model.Ref{{ID: 2, Name: "News"}}

	reader := &fakeReader{docs: map[int64]*model.SearchableDocument{1: english, 2: arabic}}
	store := &fakeStore{
		matchFn: func(string, model.SearchStrategy) ([]model.MatchScore, error) {
			return []model.MatchScore{{DocID: 1, Score: 0.7}, {DocID: 2, Score: 0.7}}, nil
		},
	}
	svc := newTestService(store, reader)

	lang := "en"
	page, err := svc.Search(context.Background(), &model.SearchQuery{
		Raw:     "go guide",
		Filters: model.SearchFilters{Language: &lang},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, page.TotalResults)
	require.Len(t, page.Results, 1)
	assert.Equal(t, int64(1), page.Results[0].Document.ID)

	for _, bucket := range page.Facets.Categories {
		assert.NotEqual(t, "News", bucket.Name, "filtered-out documents must not leak into facets")
	}
}

func TestSearchPaginationDisjointPages(t *testing.T) {
	now := time.Now().UTC()
	docs := make(map[int64]*model.SearchableDocument)
	var scores []model.MatchScore
	for i := int64(1); i <= 5; i++ {
		docs[i] = publishedDoc(i, "Go Guide", 100*i, now)
		scores = append(scores, model.MatchScore{DocID: i, Score: 0.5})
	}
	reader := &fakeReader{docs: docs}
	store := &fakeStore{
		matchFn: func(string, model.SearchStrategy) ([]model.MatchScore, error) {
			return scores, nil
		},
	}
	svc := newTestService(store, reader)

	page1, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "go guide", Page: 1, PerPage: 2})
	require.NoError(t, err)
	page2, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "go guide", Page: 2, PerPage: 2})
	require.NoError(t, err)

	assert.Equal(t, 5, page1.TotalResults)
	assert.Equal(t, 5, page2.TotalResults)

	seen := make(map[int64]bool)
	for _, r := range append(page1.Results, page2.Results...) {
		assert.False(t, seen[r.Document.ID], "pages must not overlap")
		seen[r.Document.ID] = true
	}

	beyond, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "go guide", Page: 99, PerPage: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Results)
	assert.Equal(t, 5, beyond.TotalResults)
}

func TestSearchPerPageCappedAtMax(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeReader{})

	page, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "go guide", PerPage: 5000})
	require.NoError(t, err)
	assert.Equal(t, testSearchConfig().MaxPerPage, page.PerPage)
}

func TestSearchRepeatedQueryServedFromCache(t *testing.T) {
	now := time.Now().UTC()
	reader := &fakeReader{docs: map[int64]*model.SearchableDocument{
		1: publishedDoc(1, "Go Guide", 10, now),
	}}
	store := &fakeStore{
		matchFn: func(string, model.SearchStrategy) ([]model.MatchScore, error) {
			return []model.MatchScore{{DocID: 1, Score: 0.7}}, nil
		},
	}
	svc := newTestService(store, reader)

	_, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "golang"})
	require.NoError(t, err)
	first := store.matchCalls

	again, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "golang"})
	require.NoError(t, err)

	assert.Equal(t, first, store.matchCalls, "identical query within TTL must not hit the store")
	assert.Equal(t, 1, again.TotalResults)
}

func TestSearchStoreErrorPropagates(t *testing.T) {
	store := &fakeStore{
		matchFn: func(string, model.SearchStrategy) ([]model.MatchScore, error) {
			return nil, repository.ErrStoreUnavailable
		},
	}
	svc := newTestService(store, &fakeReader{})

	_, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "golang"})
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
}

func TestSearchSuggestionFailureDoesNotFailSearch(t *testing.T) {
	now := time.Now().UTC()
	reader := &fakeReader{
		docs:       map[int64]*model.SearchableDocument{1: publishedDoc(1, "Go Guide", 10, now)},
		similarErr: errors.New("store hiccup"),
	}
	store := &fakeStore{
		matchFn: func(string, model.SearchStrategy) ([]model.MatchScore, error) {
			return []model.MatchScore{{DocID: 1, Score: 0.7}}, nil
		},
	}
	svc := newTestService(store, reader)

	page, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "golang"})
	require.NoError(t, err, "suggestions are decoration, their failure must not fail the search")
	assert.Empty(t, page.Suggestions)
	assert.Equal(t, 1, page.TotalResults)
}

func TestSuggestExcludesExactMatch(t *testing.T) {
	reader := &fakeReader{similar: []string{"Golang", "Golang Basics", "Go Tips"}}
	svc := newTestService(&fakeStore{}, reader)

	suggestions := svc.Suggest(context.Background(), "golang")
	assert.Equal(t, []string{"Golang Basics", "Go Tips"}, suggestions)
}

func TestSuggestShortQueryReturnsEmpty(t *testing.T) {
	reader := &fakeReader{similar: []string{"Go"}}
	svc := newTestService(&fakeStore{}, reader)

	assert.Empty(t, svc.Suggest(context.Background(), "go"))
}

func TestAutocompleteShortInputReturnsEmpty(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeReader{containing: []string{"Test Post"}})

	completions, err := svc.Autocomplete(context.Background(), "t")
	require.NoError(t, err)
	assert.Empty(t, completions)
}

func TestAutocompleteReturnsCompletions(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeReader{
		containing: []string{"Test Post", "Testing 101"},
	})

	completions, err := svc.Autocomplete(context.Background(), "te")
	require.NoError(t, err)
	assert.Equal(t, []string{"Test Post", "Testing 101"}, completions)
}

func TestAutocompleteCollapsesDuplicateTitles(t *testing.T) {
	svc := newTestService(&fakeStore{}, &fakeReader{
		containing: []string{"Go Guide", "go guide", "GO GUIDE", "Go Basics"},
	})

	completions, err := svc.Autocomplete(context.Background(), "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go Guide", "Go Basics"}, completions,
		"titles differing only in case collapse to the first occurrence")
}

func TestSearchRecordsQueryAndResultCount(t *testing.T) {
	now := time.Now().UTC()
	reader := &fakeReader{docs: map[int64]*model.SearchableDocument{
		1: publishedDoc(1, "Go Guide", 10, now),
	}}
	store := &fakeStore{
		matchFn: func(string, model.SearchStrategy) ([]model.MatchScore, error) {
			return []model.MatchScore{{DocID: 1, Score: 0.7}}, nil
		},
	}
	analytics := &fakeAnalytics{}
	svc := newTestServiceWithAnalytics(store, reader, analytics)

	_, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "golang"})
	require.NoError(t, err)

	require.Len(t, analytics.recorded, 1)
	assert.Equal(t, "golang", analytics.recorded[0].query)
	assert.Equal(t, 1, analytics.recorded[0].count)
}

func TestSearchShortQueryNotRecorded(t *testing.T) {
	analytics := &fakeAnalytics{}
	svc := newTestServiceWithAnalytics(&fakeStore{}, &fakeReader{}, analytics)

	_, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "a"})
	require.NoError(t, err)
	assert.Empty(t, analytics.recorded)
}

func TestSearchTrackingFailureDoesNotFailSearch(t *testing.T) {
	now := time.Now().UTC()
	reader := &fakeReader{docs: map[int64]*model.SearchableDocument{
		1: publishedDoc(1, "Go Guide", 10, now),
	}}
	store := &fakeStore{
		matchFn: func(string, model.SearchStrategy) ([]model.MatchScore, error) {
			return []model.MatchScore{{DocID: 1, Score: 0.7}}, nil
		},
	}
	analytics := &fakeAnalytics{recordErr: errors.New("insert failed")}
	svc := newTestServiceWithAnalytics(store, reader, analytics)

	page, err := svc.Search(context.Background(), &model.SearchQuery{Raw: "golang"})
	require.NoError(t, err, "tracking is decoration, its failure must not fail the search")
	assert.Equal(t, 1, page.TotalResults)
}

func TestPopularSearchesServedFromCache(t *testing.T) {
	analytics := &fakeAnalytics{popular: []model.PopularSearch{
		{Query: "golang", SearchCount: 42},
		{Query: "django", SearchCount: 7},
	}}
	svc := newTestServiceWithAnalytics(&fakeStore{}, &fakeReader{}, analytics)

	first, err := svc.PopularSearches(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "golang", first[0].Query)

	again, err := svc.PopularSearches(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, analytics.popularCalls, "repeat lookups within the TTL must not hit the store")
}

func TestPopularSearchesStoreErrorPropagates(t *testing.T) {
	analytics := &fakeAnalytics{popularErr: repository.ErrStoreUnavailable}
	svc := newTestServiceWithAnalytics(&fakeStore{}, &fakeReader{}, analytics)

	_, err := svc.PopularSearches(context.Background(), 10)
	assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
}

func TestAutocompleteCapsAtLimit(t *testing.T) {
	titles := make([]string, 25)
	for i := range titles {
		titles[i] = "Title " + string(rune('A'+i))
	}
	svc := newTestService(&fakeStore{}, &fakeReader{containing: titles})

	completions, err := svc.Autocomplete(context.Background(), "title")
	require.NoError(t, err)
	assert.Len(t, completions, testSearchConfig().AutocompleteLimit)
}
