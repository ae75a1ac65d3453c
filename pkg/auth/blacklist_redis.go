package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis键前缀
const blacklistKeyPrefix = "jwt:blacklist:"

// RedisBlacklist Redis令牌黑名单，本地缓存已确认撤销的令牌
type RedisBlacklist struct {
	redis *redis.Client
	local *MemoryBlacklist
	log   *zap.Logger
}

// NewRedisBlacklist 创建Redis黑名单
func NewRedisBlacklist(client *redis.Client, localTTL time.Duration, log *zap.Logger) *RedisBlacklist {
	return &RedisBlacklist{
		redis: client,
		local: NewMemoryBlacklist(localTTL),
		log:   log,
	}
}

// Add 将令牌添加到黑名单
func (b *RedisBlacklist) Add(ctx context.Context, tokenID string, expireAt time.Time) error {
	duration := time.Until(expireAt)
	if duration <= 0 {
		return nil
	}

	if err := b.redis.Set(ctx, blacklistKeyPrefix+tokenID, "1", duration).Err(); err != nil {
		return fmt.Errorf("添加令牌到黑名单失败: %w", err)
	}
	return b.local.Add(ctx, tokenID, expireAt)
}

// Contains 检查令牌是否在黑名单中，Redis异常时仅依赖本地缓存
func (b *RedisBlacklist) Contains(ctx context.Context, tokenID string) bool {
	if b.local.Contains(ctx, tokenID) {
		return true
	}

	key := blacklistKeyPrefix + tokenID
	n, err := b.redis.Exists(ctx, key).Result()
	if err != nil {
		b.log.Error("检查Redis黑名单失败", zap.String("jti", tokenID), zap.Error(err))
		return false
	}
	if n == 0 {
		return false
	}
	if ttl := b.redis.TTL(ctx, key).Val(); ttl > 0 {
		_ = b.local.Add(ctx, tokenID, time.Now().Add(ttl))
	}
	return true
}
