package sessions

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:epoch:"

// Store tracks a per-identity session epoch. Tokens minted under an older
// epoch are no longer accepted.
type Store interface {
	Current(ctx context.Context, identityID string) (int64, error)
	Bump(ctx context.Context, identityID string) (int64, error)
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewFromURL returns a Redis-backed store for a redis:// URL and a Nop store
// when the URL is empty.
func NewFromURL(rawURL string) (Store, func() error, error) {
	if rawURL == "" {
		return Nop{}, func() error { return nil }, nil
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	return NewRedisStore(client), client.Close, nil
}

func key(identityID string) string {
	return keyPrefix + identityID
}

func (s *RedisStore) Current(ctx context.Context, identityID string) (int64, error) {
	val, err := s.client.Get(ctx, key(identityID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, nil
	case err != nil:
		return 0, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("session epoch for %s: %w", identityID, err)
	}
	return n, nil
}

func (s *RedisStore) Bump(ctx context.Context, identityID string) (int64, error) {
	return s.client.Incr(ctx, key(identityID)).Result()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Nop keeps every identity at epoch 0.
type Nop struct{}

func (Nop) Current(context.Context, string) (int64, error) { return 0, nil }
func (Nop) Bump(context.Context, string) (int64, error)    { return 0, nil }
