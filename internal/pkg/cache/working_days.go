package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// WorkingDaysCache stores resolved working-day counts per organization and month.
type WorkingDaysCache interface {
	Get(ctx context.Context, organizationID string, year, month int) (int, bool, error)
	Set(ctx context.Context, organizationID string, year, month, days int) error
}

type RedisWorkingDaysCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisWorkingDaysCache(client redis.Cmdable, ttl time.Duration) *RedisWorkingDaysCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisWorkingDaysCache{client: client, ttl: ttl}
}

func workingDaysKey(organizationID string, year, month int) string {
	return fmt.Sprintf("workdays:%s:%04d-%02d", organizationID, year, month)
}

func (c *RedisWorkingDaysCache) Get(ctx context.Context, organizationID string, year, month int) (int, bool, error) {
	val, err := c.client.Get(ctx, workingDaysKey(organizationID, year, month)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get working days: %w", err)
	}
	days, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("decode working days %q: %w", val, err)
	}
	return days, true, nil
}

func (c *RedisWorkingDaysCache) Set(ctx context.Context, organizationID string, year, month, days int) error {
	if err := c.client.Set(ctx, workingDaysKey(organizationID, year, month), days, c.ttl).Err(); err != nil {
		return fmt.Errorf("set working days: %w", err)
	}
	return nil
}

// NoopWorkingDaysCache is used when no Redis address is configured.
type NoopWorkingDaysCache struct{}

func (NoopWorkingDaysCache) Get(context.Context, string, int, int) (int, bool, error) {
	return 0, false, nil
}

func (NoopWorkingDaysCache) Set(context.Context, string, int, int, int) error {
	return nil
}
