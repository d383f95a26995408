package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pressline/pressline/internal/platform/logger"
)

type memoryBackend struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	setErr  error
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{entries: make(map[string][]byte)}
}

func (m *memoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return data, nil
}

func (m *memoryBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key] = value
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	return nil
}

func (m *memoryBackend) DeleteByPattern(_ context.Context, pattern string) (int, error) {
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

func (m *memoryBackend) Health(context.Context) error { return nil }
func (m *memoryBackend) Close() error                 { return nil }

type countingStats struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
}

func newCountingStats() *countingStats {
	return &countingStats{hits: make(map[string]int), misses: make(map[string]int)}
}

func (s *countingStats) RecordCacheHit(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[name]++
}

func (s *countingStats) RecordCacheMiss(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.misses[name]++
}

func TestGetOrComputeMissThenHit(t *testing.T) {
	backend := newMemoryBackend()
	stats := newCountingStats()
	coordinator := NewCoordinator(backend, logger.NewNop(), stats)

	computed := 0
	compute := func(context.Context) (string, error) {
		computed++
		return "value", nil
	}

	got, err := GetOrCompute(context.Background(), coordinator, "search_posts:go", TierShort, compute)
	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.Equal(t, 1, computed)

	got, err = GetOrCompute(context.Background(), coordinator, "search_posts:go", TierShort, compute)
	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.Equal(t, 1, computed, "second read must come from cache")

	assert.Equal(t, 1, stats.misses["search_posts"])
	assert.Equal(t, 1, stats.hits["search_posts"])
}

func TestGetOrComputeBackendReadFailure(t *testing.T) {
	backend := newMemoryBackend()
	backend.getErr = errors.New("connection refused")
	coordinator := NewCoordinator(backend, logger.NewNop(), nil)

	got, err := GetOrCompute(context.Background(), coordinator, "k", TierShort, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err, "cache failure must not surface to the caller")
	assert.Equal(t, 7, got)
}

func TestGetOrComputeBackendWriteFailure(t *testing.T) {
	backend := newMemoryBackend()
	backend.setErr = errors.New("read-only replica")
	coordinator := NewCoordinator(backend, logger.NewNop(), nil)

	got, err := GetOrCompute(context.Background(), coordinator, "k", TierShort, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestGetOrComputeComputeError(t *testing.T) {
	coordinator := NewCoordinator(newMemoryBackend(), logger.NewNop(), nil)

	wantErr := errors.New("store down")
	_, err := GetOrCompute(context.Background(), coordinator, "k", TierShort, func(context.Context) (int, error) {
		return 0, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestGetOrComputeUndecodableEntryRecomputed(t *testing.T) {
	backend := newMemoryBackend()
	backend.entries["k"] = []byte("{not json")
	coordinator := NewCoordinator(backend, logger.NewNop(), nil)

	got, err := GetOrCompute(context.Background(), coordinator, "k", TierShort, func(context.Context) (int, error) {
		return 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestDeletePattern(t *testing.T) {
	backend := newMemoryBackend()
	coordinator := NewCoordinator(backend, logger.NewNop(), nil)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "search_posts:go:page_1", []byte(`1`), time.Minute))
	require.NoError(t, backend.Set(ctx, "search_posts:go:page_2", []byte(`1`), time.Minute))
	require.NoError(t, backend.Set(ctx, "category_tree", []byte(`1`), time.Minute))

	dropped := coordinator.DeletePattern(ctx, "search_posts*")
	assert.Equal(t, 2, dropped)

	_, err := backend.Get(ctx, "category_tree")
	assert.NoError(t, err, "unrelated keys must survive")
}

func TestTierTTLs(t *testing.T) {
	assert.Equal(t, 5*time.Minute, TierShort.TTL())
	assert.Equal(t, 30*time.Minute, TierMedium.TTL())
	assert.Equal(t, time.Hour, TierLong.TTL())
	assert.Equal(t, 24*time.Hour, TierVeryLong.TTL())
}
