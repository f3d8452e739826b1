package orders

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCacheStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCacheStore) Get(ctx context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeCacheStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	default:
		return errors.New("unsupported value")
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCacheStore) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeCacheStore) CacheKey(parts ...string) string {
	return "cache:" + strings.Join(parts, ":")
}

func TestRedisHistoryCacheRoundTrip(t *testing.T) {
	store := newFakeCacheStore()
	cache, err := NewRedisHistoryCache(store, 5*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()
	user := uuid.New()

	_, ok, err := cache.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)

	page := OrderPage{Items: []OrderDTO{{ID: uuid.New(), CustomerName: "דנה", StatusLabel: "ממתין"}}, NextCursor: "abc"}
	require.NoError(t, cache.Set(ctx, user, "", page))

	key := "cache:orders:history:" + user.String()
	assert.Equal(t, 5*time.Minute, store.ttls[key])

	got, ok, err := cache.Get(ctx, user)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, page.NextCursor, got.NextCursor)
	require.Len(t, got.Items, 1)
	assert.Equal(t, page.Items[0].ID, got.Items[0].ID)

	require.NoError(t, cache.Invalidate(ctx, user))
	_, ok, err = cache.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisHistoryCacheCorruptPayloadIsMiss(t *testing.T) {
	store := newFakeCacheStore()
	cache, err := NewRedisHistoryCache(store, time.Minute)
	require.NoError(t, err)
	user := uuid.New()
	store.values["cache:orders:history:"+user.String()] = "{not json"

	_, ok, err := cache.Get(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisHistoryCacheSurfacesStoreErrors(t *testing.T) {
	store := newFakeCacheStore()
	store.getErr = errors.New("connection refused")
	cache, err := NewRedisHistoryCache(store, time.Minute)
	require.NoError(t, err)

	_, _, err = cache.Get(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestNewRedisHistoryCacheValidates(t *testing.T) {
	_, err := NewRedisHistoryCache(nil, time.Minute)
	assert.Error(t, err)
	_, err = NewRedisHistoryCache(newFakeCacheStore(), 0)
	assert.Error(t, err)
}

func TestRedisHistoryCacheDropsPageFromOlderGeneration(t *testing.T) {
	store := newFakeCacheStore()
	cache, err := NewRedisHistoryCache(store, 5*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()
	user := uuid.New()

	before, err := cache.Generation(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, before)

	require.NoError(t, cache.Invalidate(ctx, user))
	after, err := cache.Generation(ctx, user)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.Equal(t, 10*time.Minute, store.ttls["cache:orders:history_gen:"+user.String()])

	stale := OrderPage{NextCursor: "stale"}
	require.NoError(t, cache.Set(ctx, user, before, stale))
	_, ok, err := cache.Get(ctx, user)
	require.NoError(t, err)
	assert.False(t, ok, "page stored under a replaced generation is a miss")

	fresh := OrderPage{NextCursor: "fresh"}
	require.NoError(t, cache.Set(ctx, user, after, fresh))
	got, ok, err := cache.Get(ctx, user)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fresh", got.NextCursor)
}
