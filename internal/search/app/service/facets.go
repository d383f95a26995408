package service

import (
	"sort"
	"time"

	"github.com/pressline/pressline/internal/search/domain/model"
)

const (
	facetBucketLimit = 10
	dateBucketLimit  = 12
)

// BuildFacets aggregates facet counts over the full filtered result
// set, before pagination. A document carrying several categories
// counts once toward each of them.
func BuildFacets(docs []*model.SearchableDocument) model.FacetSet {
	categories := make(map[model.Ref]int)
	types := make(map[model.Ref]int)
	orgs := make(map[model.Ref]int)
	months := make(map[time.Time]int)

	for _, doc := range docs {
		for _, cat := range doc.Categories {
			categories[cat]++
		}
		types[doc.Type]++
		orgs[doc.Organization]++
		month := time.Date(doc.PublishedAt.Year(), doc.PublishedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		months[month]++
	}

	return model.FacetSet{
		Categories:    topBuckets(categories, facetBucketLimit),
		Types:         topBuckets(types, facetBucketLimit),
		Organizations: topBuckets(orgs, facetBucketLimit),
		Dates:         topDateBuckets(months, dateBucketLimit),
	}
}

func topBuckets(counts map[model.Ref]int, limit int) []model.FacetBucket {
	buckets := make([]model.FacetBucket, 0, len(counts))
	for ref, count := range counts {
		buckets = append(buckets, model.FacetBucket{ID: ref.ID, Name: ref.Name, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Name < buckets[j].Name
	})
	if len(buckets) > limit {
		buckets = buckets[:limit]
	}
	return buckets
}

func topDateBuckets(counts map[time.Time]int, limit int) []model.DateFacetBucket {
	buckets := make([]model.DateFacetBucket, 0, len(counts))
	for month, count := range counts {
		buckets = append(buckets, model.DateFacetBucket{Month: month, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Month.After(buckets[j].Month)
	})
	if len(buckets) > limit {
		buckets = buckets[:limit]
	}
	return buckets
}
