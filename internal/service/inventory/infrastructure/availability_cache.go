// internal/service/inventory/infrastructure/availability_cache.go
package infrastructure

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"stocknexus/internal/pkg/logger"
	"stocknexus/internal/pkg/redis"
)

// RedisAvailabilityCache 是 application.AvailabilityCache 的 Redis 实现。
// 可用性检查是订单域接单前的同步热点路径，用短 TTL 缓存挡掉大部分读。
// 缓存的任何失败都只记日志：查询方拿不到缓存会回源台账，
// 回源也失败时由上层保守返回 false。
type RedisAvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisAvailabilityCache{client: client, ttl: ttl}
}

func availabilityKey(productID int64) string {
	return fmt.Sprintf("inventory:available:%d", productID)
}

func (c *RedisAvailabilityCache) GetAvailable(ctx context.Context, productID int64) (int, bool) {
	val, err := c.client.GetClient().Get(ctx, availabilityKey(productID)).Result()
	if err != nil {
		return 0, false
	}
	available, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return available, true
}

func (c *RedisAvailabilityCache) SetAvailable(ctx context.Context, productID int64, available int) {
	err := c.client.GetClient().Set(ctx, availabilityKey(productID), available, c.ttl).Err()
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).
			Int64("product_id", productID).
			Msg("Failed to populate availability cache")
	}
}
