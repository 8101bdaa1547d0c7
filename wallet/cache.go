package wallet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const balanceKey = "iotacanvas:balance"

// BalanceCache keeps the last balance in redis. Looking up a balance on the
// tangle can take several seconds. A nil cache misses on every lookup.
type BalanceCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBalanceCache(client *redis.Client, ttl time.Duration) *BalanceCache {
	if client == nil {
		return nil
	}
	return &BalanceCache{client: client, ttl: ttl}
}

func (c *BalanceCache) Get(ctx context.Context) (int64, bool, error) {
	if c == nil || c.client == nil {
		return 0, false, nil
	}

	raw, err := c.client.Get(ctx, balanceKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("get cached balance: %w", err)
	}

	balance, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("decode cached balance: %w", err)
	}
	return balance, true, nil
}

func (c *BalanceCache) Set(ctx context.Context, balance int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Set(ctx, balanceKey, balance, c.ttl).Err(); err != nil {
		return fmt.Errorf("set cached balance: %w", err)
	}
	return nil
}

func (c *BalanceCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, balanceKey).Err(); err != nil {
		return fmt.Errorf("delete cached balance: %w", err)
	}
	return nil
}
