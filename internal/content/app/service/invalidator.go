package service

import (
	"context"
	"fmt"

	"github.com/pressline/pressline/internal/platform/cache"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/shared/events"
)

// InvalidationRecorder receives invalidation observations.
type InvalidationRecorder interface {
	RecordInvalidation(entity string, keysDropped int)
}

// Invalidator translates entity change events into cache pattern
// deletes. Invalidation is best-effort: a backend that cannot delete
// degrades to a logged no-op and TTL expiry bounds staleness.
type Invalidator struct {
	cache  *cache.Coordinator
	logger logger.Logger
	stats  InvalidationRecorder
}

func NewInvalidator(coordinator *cache.Coordinator, log logger.Logger, stats InvalidationRecorder) *Invalidator {
	return &Invalidator{cache: coordinator, logger: log, stats: stats}
}

// Handle processes one invalidation event, dropping the detail and
// list keys of the changed entity plus every key family behind the
// affected aggregates. Malformed events are rejected; delete failures
// are not.
func (inv *Invalidator) Handle(ctx context.Context, event events.InvalidationEvent) error {
	if err := event.Valid(); err != nil {
		return fmt.Errorf("invalid invalidation event: %w", err)
	}

	dropped := 0
	for _, pattern := range patternsFor(event) {
		dropped += inv.cache.DeletePattern(ctx, pattern)
	}

	if inv.stats != nil {
		inv.stats.RecordInvalidation(string(event.Entity), dropped)
	}
	inv.logger.Info("Cache invalidated",
		"entity", event.Entity, "entity_id", event.EntityID,
		"action", event.Action, "keys_dropped", dropped)
	return nil
}

func patternsFor(event events.InvalidationEvent) []string {
	patterns := []string{
		fmt.Sprintf("%s_detail:%d*", event.Entity, event.EntityID),
		fmt.Sprintf("%s_list*", event.Entity),
	}
	for _, agg := range event.AffectedAggregates {
		patterns = append(patterns, aggregatePatterns(agg)...)
	}
	return patterns
}

func aggregatePatterns(agg events.Aggregate) []string {
	switch agg {
	case events.AggregateSearchResults:
		return []string{"search_posts*", "unified_search*"}
	case events.AggregatePostLists:
		return []string{"post_list*"}
	case events.AggregateCategoryCounts:
		return []string{"category_search*", "category_posts*", "post_counts*"}
	case events.AggregateCategoryTree:
		return []string{"category_tree*"}
	case events.AggregateHashtagTrending:
		return []string{"hashtag_trending*", "hashtag_search*"}
	case events.AggregateAutocomplete:
		return []string{"autocomplete*"}
	default:
		return nil
	}
}
