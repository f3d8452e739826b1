package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type redisCounter interface {
	Get(ctx context.Context, key string) (string, error)
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
	Del(ctx context.Context, keys ...string) error
	RateLimitKey(scope string) string
}

// RedisStore shares counters between instances. Redis expires windows on its
// own, so Sweep has nothing to do.
type RedisStore struct {
	client redisCounter
	now    func() time.Time
}

func NewRedisStore(client redisCounter) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisStore{client: client, now: time.Now}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	k := s.client.RateLimitKey(key)
	raw, err := s.client.Get(ctx, k)
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return Entry{}, false, fmt.Errorf("parse counter %s: %w", k, err)
	}
	ttl, err := s.client.TTL(ctx, k)
	if err != nil {
		return Entry{}, false, err
	}
	if ttl <= 0 {
		return Entry{}, false, nil
	}
	return Entry{Count: count, ResetAt: s.now().Add(ttl)}, true, nil
}

func (s *RedisStore) Increment(ctx context.Context, key string, now time.Time, window time.Duration) (Entry, error) {
	k := s.client.RateLimitKey(key)
	count, err := s.client.IncrWithTTL(ctx, k, window)
	if err != nil {
		return Entry{}, err
	}
	ttl, err := s.client.TTL(ctx, k)
	if err != nil {
		return Entry{}, err
	}
	if ttl <= 0 {
		ttl = window
	}
	return Entry{Count: int(count), ResetAt: now.Add(ttl)}, nil
}

func (s *RedisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.client.RateLimitKey(key))
}
