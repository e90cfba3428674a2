package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const statusKeyPrefix = "payments:status"

// StatusCache keeps the last known status of a payment for front ends that
// poll while the diner is on the gateway page.
type StatusCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewStatusCache(client redis.Cmdable, ttl time.Duration) *StatusCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &StatusCache{client: client, ttl: ttl}
}

func statusKey(storeID string, paymentID uint64) string {
	return fmt.Sprintf("%s:%s:%d", statusKeyPrefix, storeID, paymentID)
}

// Get reports false without an error on a cache miss.
func (c *StatusCache) Get(ctx context.Context, storeID string, paymentID uint64) (int32, bool, error) {
	raw, err := c.client.Get(ctx, statusKey(storeID, paymentID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	status, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, false, nil
	}
	return int32(status), true, nil
}

func (c *StatusCache) Set(ctx context.Context, storeID string, paymentID uint64, status int32) error {
	return c.client.Set(ctx, statusKey(storeID, paymentID), strconv.FormatInt(int64(status), 10), c.ttl).Err()
}

func (c *StatusCache) Invalidate(ctx context.Context, storeID string, paymentID uint64) error {
	return c.client.Del(ctx, statusKey(storeID, paymentID)).Err()
}
