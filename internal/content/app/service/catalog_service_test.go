package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressline/pressline/internal/content/domain/model"
	"github.com/pressline/pressline/internal/platform/cache"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/shared/events"
)

type fakeCategoryRepo struct {
	tree      []model.CategoryNode
	treeCalls int
}

func (f *fakeCategoryRepo) SearchByName(context.Context, string, float64, int) ([]model.CategoryMatch, error) {
	return nil, nil
}

func (f *fakeCategoryRepo) Tree(context.Context) ([]model.CategoryNode, error) {
	f.treeCalls++
	return f.tree, nil
}

type fakeHashTagRepo struct {
	trending      []model.HashTag
	trendingCalls int
}

func (f *fakeHashTagRepo) SearchByName(context.Context, string, int) ([]model.HashTag, error) {
	return nil, nil
}

func (f *fakeHashTagRepo) Trending(context.Context, int) ([]model.HashTag, error) {
	f.trendingCalls++
	return f.trending, nil
}

type fakeStatsRepo struct {
	counts map[string]int
	calls  int
}

func (f *fakeStatsRepo) CountsByStatus(context.Context) (map[string]int, error) {
	f.calls++
	return f.counts, nil
}

func newTestCatalog(backend *memBackend, cats *fakeCategoryRepo, tags *fakeHashTagRepo, stats *fakeStatsRepo) *CatalogService {
	coordinator := cache.NewCoordinator(backend, logger.NewNop(), nil)
	return NewCatalogService(cats, tags, stats, coordinator, logger.NewNop())
}

func TestCategoryTreeCached(t *testing.T) {
	parent := int64(1)
	cats := &fakeCategoryRepo{tree: []model.CategoryNode{
		{
			Category:      model.Category{ID: 1, Name: "Tech", Slug: "tech", IsActive: true},
			Subcategories: []model.Category{{ID: 2, ParentID: &parent, Name: "Go", Slug: "go", IsActive: true}},
		},
	}}
	svc := newTestCatalog(newMemBackend(), cats, &fakeHashTagRepo{}, &fakeStatsRepo{})

	tree, err := svc.CategoryTree(context.Background())
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Len(t, tree[0].Subcategories, 1)

	_, err = svc.CategoryTree(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cats.treeCalls, "second read must come from cache")
}

func TestTrendingHashtagsCached(t *testing.T) {
	tags := &fakeHashTagRepo{trending: []model.HashTag{{ID: 1, Name: "golang", PostCount: 42, IsActive: true}}}
	svc := newTestCatalog(newMemBackend(), &fakeCategoryRepo{}, tags, &fakeStatsRepo{})

	got, err := svc.TrendingHashtags(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = svc.TrendingHashtags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, tags.trendingCalls)
}

func TestPostCountsByStatusCached(t *testing.T) {
	stats := &fakeStatsRepo{counts: map[string]int{"published": 10, "draft": 3}}
	svc := newTestCatalog(newMemBackend(), &fakeCategoryRepo{}, &fakeHashTagRepo{}, stats)

	counts, err := svc.PostCountsByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, counts["published"])

	_, err = svc.PostCountsByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.calls)
}

func TestInvalidationRefreshesCategoryTree(t *testing.T) {
	backend := newMemBackend()
	cats := &fakeCategoryRepo{tree: []model.CategoryNode{
		{Category: model.Category{ID: 1, Name: "Tech", Slug: "tech", IsActive: true}},
	}}
	svc := newTestCatalog(backend, cats, &fakeHashTagRepo{}, &fakeStatsRepo{})
	coordinator := cache.NewCoordinator(backend, logger.NewNop(), nil)
	inv := NewInvalidator(coordinator, logger.NewNop(), nil)

	_, err := svc.CategoryTree(context.Background())
	require.NoError(t, err)

	event := events.NewInvalidationEvent(events.EntityCategory, 1, events.ActionUpdated)
	require.NoError(t, inv.Handle(context.Background(), event))

	_, err = svc.CategoryTree(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, cats.treeCalls, "invalidation must force a recompute")
}
