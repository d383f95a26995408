package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInvalidationEventDerivesAggregates(t *testing.T) {
	event := NewInvalidationEvent(EntityPost, 42, ActionUpdated)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EntityPost, event.Entity)
	assert.Equal(t, int64(42), event.EntityID)
	assert.False(t, event.Timestamp.IsZero())
	assert.Contains(t, event.AffectedAggregates, AggregateSearchResults)
	assert.Contains(t, event.AffectedAggregates, AggregateCategoryCounts)
	assert.Contains(t, event.AffectedAggregates, AggregateAutocomplete)
}

func TestAggregatesForCategoryIncludesTree(t *testing.T) {
	aggregates := AggregatesFor(EntityCategory)
	assert.Contains(t, aggregates, AggregateCategoryTree)
	assert.NotContains(t, aggregates, AggregateHashtagTrending)

	assert.Equal(t, aggregates, AggregatesFor(EntitySubCategory))
}

func TestAggregatesForHashtag(t *testing.T) {
	aggregates := AggregatesFor(EntityHashTag)
	assert.Contains(t, aggregates, AggregateHashtagTrending)
	assert.NotContains(t, aggregates, AggregateCategoryTree)
}

func TestAggregatesForUnknownEntityFallsBackToSearch(t *testing.T) {
	aggregates := AggregatesFor(EntityType("mystery"))
	assert.Equal(t, []Aggregate{AggregateSearchResults}, aggregates)
}

func TestValidRejectsMissingFields(t *testing.T) {
	assert.Error(t, InvalidationEvent{EntityID: 1}.Valid())
	assert.Error(t, InvalidationEvent{Entity: EntityPost}.Valid())
	assert.NoError(t, InvalidationEvent{Entity: EntityPost, EntityID: 1}.Valid())
}

func TestMarshalRoundTrip(t *testing.T) {
	event := NewInvalidationEvent(EntityHashTag, 9, ActionDeleted)

	data, err := event.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalInvalidationEvent(data)
	require.NoError(t, err)

	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, event.Entity, decoded.Entity)
	assert.Equal(t, event.AffectedAggregates, decoded.AffectedAggregates)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := UnmarshalInvalidationEvent([]byte("{broken"))
	assert.Error(t, err)
}
