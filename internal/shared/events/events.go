// Package events defines the invalidation events emitted when a
// content write transaction commits. Cache invalidation consumes these
// events explicitly; there are no implicit model lifecycle hooks.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntityType identifies the kind of content record a write touched.
type EntityType string

const (
	EntityPost         EntityType = "post"
	EntityCategory     EntityType = "category"
	EntitySubCategory  EntityType = "subcategory"
	EntityHashTag      EntityType = "hashtag"
	EntityPostType     EntityType = "posttype"
	EntityOrganization EntityType = "organization"
)

// Action is the kind of mutation that produced the event.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Aggregate names a cached aggregate derived from entity data. The
// invalidation fan-out is data-driven: an event lists the aggregates
// its entity feeds into, and the invalidator maps each one to the
// cache key patterns to drop.
type Aggregate string

const (
	AggregateSearchResults   Aggregate = "search_results"
	AggregatePostLists       Aggregate = "post_lists"
	AggregateCategoryCounts  Aggregate = "category_counts"
	AggregateCategoryTree    Aggregate = "category_tree"
	AggregateHashtagTrending Aggregate = "hashtag_trending"
	AggregateAutocomplete    Aggregate = "autocomplete"
)

// InvalidationEvent is emitted once per committed write.
type InvalidationEvent struct {
	ID                 string      `json:"id"`
	Entity             EntityType  `json:"entity"`
	EntityID           int64       `json:"entity_id"`
	Action             Action      `json:"action"`
	AffectedAggregates []Aggregate `json:"affected_aggregates"`
	Timestamp          time.Time   `json:"timestamp"`
}

// NewInvalidationEvent builds an event with the aggregate fan-out
// derived from the entity type.
func NewInvalidationEvent(entity EntityType, entityID int64, action Action) InvalidationEvent {
	return InvalidationEvent{
		ID:                 uuid.New().String(),
		Entity:             entity,
		EntityID:           entityID,
		Action:             action,
		AffectedAggregates: AggregatesFor(entity),
		Timestamp:          time.Now().UTC(),
	}
}

// AggregatesFor returns the cached aggregates derived from the entity.
// A post feeds search pages, post lists, category counts, and hashtag
// aggregates; classification entities additionally feed the tree.
func AggregatesFor(entity EntityType) []Aggregate {
	switch entity {
	case EntityPost:
		return []Aggregate{
			AggregateSearchResults,
			AggregatePostLists,
			AggregateCategoryCounts,
			AggregateHashtagTrending,
			AggregateAutocomplete,
		}
	case EntityCategory, EntitySubCategory:
		return []Aggregate{
			AggregateSearchResults,
			AggregatePostLists,
			AggregateCategoryCounts,
			AggregateCategoryTree,
		}
	case EntityHashTag:
		return []Aggregate{
			AggregateSearchResults,
			AggregateHashtagTrending,
		}
	case EntityPostType, EntityOrganization:
		return []Aggregate{
			AggregateSearchResults,
			AggregatePostLists,
		}
	default:
		return []Aggregate{AggregateSearchResults}
	}
}

// Valid reports whether the event carries enough to act on.
func (e InvalidationEvent) Valid() error {
	if e.Entity == "" {
		return fmt.Errorf("invalidation event missing entity type")
	}
	if e.EntityID <= 0 {
		return fmt.Errorf("invalidation event missing entity id")
	}
	return nil
}

// Marshal serializes the event for transport.
func (e InvalidationEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalInvalidationEvent parses an event from transport bytes.
func UnmarshalInvalidationEvent(data []byte) (InvalidationEvent, error) {
	var e InvalidationEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("failed to decode invalidation event: %w", err)
	}
	return e, nil
}
