package companion

import (
	"context"
	"errors"
	"testing"
	"time"

	"xdrip-watch/internal/models"
	"xdrip-watch/internal/settings"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSnapshotKey = "xdrip:watch:snapshot"

func newTestCache(t *testing.T, ttl time.Duration) (*SnapshotCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSnapshotCache(client, testSnapshotKey, ttl, zap.NewNop()), mr
}

func newTestProvider(store *fakeReadingStore, cache *SnapshotCache) *Provider {
	p := NewProvider(store, &fakeSensorStore{}, cache, settings.NewStore(nil), zap.NewNop())
	p.now = func() time.Time { return now }
	return p
}

func TestProvider_CachesSnapshot(t *testing.T) {
	store := newFakeReadingStore(models.Reading{Value: 110, Timestamp: now.Add(-5 * time.Minute)})
	cache, mr := newTestCache(t, 30*time.Second)
	p := newTestProvider(store, cache)
	ctx := context.Background()

	first, err := p.Snapshot(ctx)
	require.NoError(t, err)
	second, err := p.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, store.lists)
	assert.Equal(t, first.BgReadingValues, second.BgReadingValues)

	raw, err := mr.Get(testSnapshotKey)
	require.NoError(t, err)
	assert.Contains(t, raw, `"bgReadingValues":[110]`)
	assert.Equal(t, 30*time.Second, mr.TTL(testSnapshotKey))
}

func TestProvider_CacheExpiresAfterTTL(t *testing.T) {
	store := newFakeReadingStore(models.Reading{Value: 110, Timestamp: now.Add(-5 * time.Minute)})
	cache, mr := newTestCache(t, 30*time.Second)
	p := newTestProvider(store, cache)
	ctx := context.Background()

	_, err := p.Snapshot(ctx)
	require.NoError(t, err)

	mr.FastForward(31 * time.Second)

	_, err = p.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.lists)
}

func TestProvider_InvalidateForcesRebuild(t *testing.T) {
	store := newFakeReadingStore(models.Reading{Value: 110, Timestamp: now.Add(-5 * time.Minute)})
	cache, _ := newTestCache(t, 30*time.Second)
	p := newTestProvider(store, cache)
	ctx := context.Background()

	_, err := p.Snapshot(ctx)
	require.NoError(t, err)

	_, err = store.Upsert(ctx, models.Reading{Value: 118, Timestamp: now.Add(-time.Minute)}, SourceStream)
	require.NoError(t, err)
	p.Invalidate(ctx)

	snap, err := p.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, store.lists)
	assert.Equal(t, []float64{118, 110}, snap.BgReadingValues)
	assert.Equal(t, 8.0, *snap.DeltaChangeInMgDl)
}

func TestNewSnapshotCache_NonPositiveTTLDisablesCaching(t *testing.T) {
	for _, ttl := range []time.Duration{0, -time.Second} {
		cache, mr := newTestCache(t, ttl)
		assert.Nil(t, cache)

		store := newFakeReadingStore()
		p := newTestProvider(store, cache)
		_, err := p.Snapshot(context.Background())
		require.NoError(t, err)
		_, err = p.Snapshot(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 2, store.lists)
		assert.False(t, mr.Exists(testSnapshotKey))
		p.Invalidate(context.Background())
	}
}

func TestProvider_StoreError(t *testing.T) {
	store := newFakeReadingStore()
	store.listErr = errors.New("db down")
	cache, _ := newTestCache(t, 30*time.Second)
	p := newTestProvider(store, cache)

	_, err := p.Snapshot(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load readings")
}

func TestSnapshotCache_InvalidEntryIsMiss(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set(testSnapshotKey, `{"bgReadingValues":[1]}`))

	_, err := cache.Get(context.Background())

	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSnapshotCache_RedisDown(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	mr.Close()

	_, err := cache.Get(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}
