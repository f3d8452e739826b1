package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(parts ...string) string
}

// RedisHistoryCache stores the first history page as JSON under
// cache:orders:history:<user id>. Each stored page carries the generation
// token current when it was loaded; Invalidate rotates the token kept under
// cache:orders:history_gen:<user id>, so a page written by a read that
// overlapped an invalidation reads as a miss.
type RedisHistoryCache struct {
	store cacheStore
	ttl   time.Duration
}

type historyEntry struct {
	Generation string    `json:"generation"`
	Page       OrderPage `json:"page"`
}

func NewRedisHistoryCache(store cacheStore, ttl time.Duration) (*RedisHistoryCache, error) {
	if store == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("history cache ttl must be positive")
	}
	return &RedisHistoryCache{store: store, ttl: ttl}, nil
}

func (c *RedisHistoryCache) key(userID uuid.UUID) string {
	return c.store.CacheKey("orders", "history", userID.String())
}

func (c *RedisHistoryCache) generationKey(userID uuid.UUID) string {
	return c.store.CacheKey("orders", "history_gen", userID.String())
}

func (c *RedisHistoryCache) Get(ctx context.Context, userID uuid.UUID) (*OrderPage, bool, error) {
	raw, err := c.store.Get(ctx, c.key(userID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var entry historyEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		// A payload we cannot read is treated as a miss and overwritten.
		return nil, false, nil
	}
	current, err := c.Generation(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if entry.Generation != current {
		return nil, false, nil
	}
	return &entry.Page, true, nil
}

// Generation returns the current token for userID, or "" when no
// invalidation is on record.
func (c *RedisHistoryCache) Generation(ctx context.Context, userID uuid.UUID) (string, error) {
	gen, err := c.store.Get(ctx, c.generationKey(userID))
	if errors.Is(err, redislib.Nil) {
		return "", nil
	}
	return gen, err
}

func (c *RedisHistoryCache) Set(ctx context.Context, userID uuid.UUID, generation string, page OrderPage) error {
	payload, err := json.Marshal(historyEntry{Generation: generation, Page: page})
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.key(userID), payload, c.ttl)
}

// Invalidate rotates the generation before dropping the page. The token
// outlives any page stored under the previous one.
func (c *RedisHistoryCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	err := c.store.Set(ctx, c.generationKey(userID), uuid.NewString(), 2*c.ttl)
	return multierr.Append(err, c.store.Del(ctx, c.key(userID)))
}

// NopHistoryCache never hits.
type NopHistoryCache struct{}

func (NopHistoryCache) Get(context.Context, uuid.UUID) (*OrderPage, bool, error) {
	return nil, false, nil
}

func (NopHistoryCache) Generation(context.Context, uuid.UUID) (string, error) { return "", nil }

func (NopHistoryCache) Set(context.Context, uuid.UUID, string, OrderPage) error { return nil }

func (NopHistoryCache) Invalidate(context.Context, uuid.UUID) error { return nil }
