package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/pressline/pressline/internal/platform/logger"
)

// Tier is a named cache expiration duration chosen per data volatility.
type Tier string

const (
	TierShort    Tier = "short"     // query result pages, per-request aggregates
	TierMedium   Tier = "medium"    // moderately volatile lists
	TierLong     Tier = "long"      // stable aggregates such as the category tree
	TierVeryLong Tier = "very_long" // rarely-changing reference data
)

// TTL returns the expiration duration for the tier.
func (t Tier) TTL() time.Duration {
	switch t {
	case TierShort:
		return 5 * time.Minute
	case TierMedium:
		return 30 * time.Minute
	case TierLong:
		return time.Hour
	case TierVeryLong:
		return 24 * time.Hour
	default:
		return 30 * time.Minute
	}
}

// StatsRecorder receives cache hit/miss observations.
type StatsRecorder interface {
	RecordCacheHit(name string)
	RecordCacheMiss(name string)
}

// Coordinator provides read-through caching over an injected Backend.
// Backend failures are absorbed: the cache is an optimization, never a
// correctness dependency. Concurrent computes for the same absent key
// are allowed to race; compute must be an idempotent read, last write
// wins.
type Coordinator struct {
	backend Backend
	logger  logger.Logger
	stats   StatsRecorder
}

// NewCoordinator creates a cache coordinator over the given backend.
func NewCoordinator(backend Backend, log logger.Logger, stats StatsRecorder) *Coordinator {
	return &Coordinator{
		backend: backend,
		logger:  log,
		stats:   stats,
	}
}

// GetOrCompute returns the cached value under key, computing and
// storing it on a miss. Cache read/write errors are logged and the
// caller gets the computed value regardless.
func GetOrCompute[T any](ctx context.Context, c *Coordinator, key string, tier Tier, compute func(context.Context) (T, error)) (T, error) {
	var result T

	data, err := c.backend.Get(ctx, key)
	if err == nil {
		if err := json.Unmarshal(data, &result); err == nil {
			c.recordHit(key)
			return result, nil
		}
		// Undecodable payload is treated as a miss and overwritten below.
		c.logger.Warn("Dropping undecodable cache entry", "key", key)
	} else if !errors.Is(err, ErrCacheMiss) {
		c.logger.Warn("Cache read failed, computing directly", "key", key, "error", err)
	}
	c.recordMiss(key)

	result, err = compute(ctx)
	if err != nil {
		return result, err
	}

	if data, err := json.Marshal(result); err == nil {
		if err := c.backend.Set(ctx, key, data, tier.TTL()); err != nil {
			c.logger.Warn("Cache write failed", "key", key, "error", err)
		}
	}

	return result, nil
}

// Delete removes keys, best-effort.
func (c *Coordinator) Delete(ctx context.Context, keys ...string) {
	if err := c.backend.Delete(ctx, keys...); err != nil {
		c.logger.Warn("Cache delete failed", "keys", keys, "error", err)
	}
}

// DeletePattern removes all keys matching a glob pattern, best-effort,
// returning the number of keys dropped. A backend that cannot delete
// by pattern degrades to a logged no-op; TTL expiry bounds staleness.
func (c *Coordinator) DeletePattern(ctx context.Context, pattern string) int {
	count, err := c.backend.DeleteByPattern(ctx, pattern)
	if err != nil {
		c.logger.Warn("Cache pattern delete failed", "pattern", pattern, "error", err)
		return 0
	}
	c.logger.Debug("Cache pattern delete", "pattern", pattern, "count", count)
	return count
}

// Health reports backend connectivity.
func (c *Coordinator) Health(ctx context.Context) error {
	return c.backend.Health(ctx)
}

func (c *Coordinator) recordHit(key string) {
	if c.stats != nil {
		c.stats.RecordCacheHit(keyPrefixOf(key))
	}
}

func (c *Coordinator) recordMiss(key string) {
	if c.stats != nil {
		c.stats.RecordCacheMiss(keyPrefixOf(key))
	}
}

func keyPrefixOf(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
