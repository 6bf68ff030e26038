package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/olyamironova/ledger-engine/internal/domain"
	"github.com/olyamironova/ledger-engine/internal/port"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 5 * time.Minute

// RedisCache stores the balance projection keyed by username. A stale entry
// is tolerated for at most the TTL; writers invalidate after each mutation.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ port.Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func balanceKey(username string) string {
	return "bal:" + username
}

func (c *RedisCache) GetBalance(ctx context.Context, username string) (*domain.Balance, error) {
	data, err := c.client.Get(ctx, balanceKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var b domain.Balance
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *RedisCache) SetBalance(ctx context.Context, b *domain.Balance) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, balanceKey(b.Username), data, c.ttl).Err()
}

func (c *RedisCache) InvalidateBalance(ctx context.Context, username string) error {
	return c.client.Del(ctx, balanceKey(username)).Err()
}
