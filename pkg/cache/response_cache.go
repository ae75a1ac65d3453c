package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nsxzhou1114/blog-platform/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const scanBatch = 100

// ResponseCache 基于Redis的响应缓存，客户端为空时整体关闭
type ResponseCache struct {
	client *redis.Client
	log    *zap.Logger
}

// NewResponseCache 创建响应缓存，client 为 nil 表示缓存关闭
func NewResponseCache(client *redis.Client, log *zap.Logger) *ResponseCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResponseCache{client: client, log: log}
}

// Enabled 缓存是否可用
func (c *ResponseCache) Enabled() bool {
	return c != nil && c.client != nil
}

// Key 组合缓存键
func Key(prefix, suffix string) string {
	return prefix + ":" + suffix
}

// Get 读取缓存，未命中、关闭或Redis出错时返回 false
func (c *ResponseCache) Get(ctx context.Context, prefix, key string) ([]byte, bool) {
	if !c.Enabled() {
		metrics.CacheResults.WithLabelValues(prefix, "bypass").Inc()
		return nil, false
	}

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		metrics.CacheResults.WithLabelValues(prefix, "hit").Inc()
		return data, true
	case errors.Is(err, redis.Nil):
		metrics.CacheResults.WithLabelValues(prefix, "miss").Inc()
	default:
		metrics.CacheResults.WithLabelValues(prefix, "error").Inc()
		c.log.Warn("读取响应缓存失败", zap.String("key", key), zap.Error(err))
	}
	return nil, false
}

// Set 写入缓存
func (c *ResponseCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Set(ctx, key, body, ttl).Err(); err != nil {
		return fmt.Errorf("写入响应缓存失败: %w", err)
	}
	return nil
}

// Invalidate 按通配模式删除缓存，返回删除的键数量
// 使用 SCAN 分批遍历，避免 KEYS 阻塞Redis
func (c *ResponseCache) Invalidate(ctx context.Context, patterns ...string) (int, error) {
	if !c.Enabled() {
		return 0, nil
	}

	deleted := 0
	for _, pattern := range patterns {
		var cursor uint64
		for {
			keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
			if err != nil {
				return deleted, fmt.Errorf("扫描缓存键失败 %s: %w", pattern, err)
			}
			if len(keys) > 0 {
				n, err := c.client.Del(ctx, keys...).Result()
				if err != nil {
					return deleted, fmt.Errorf("删除缓存键失败 %s: %w", pattern, err)
				}
				deleted += int(n)
			}
			cursor = next
			if cursor == 0 {
				break
			}
		}
	}

	metrics.CacheInvalidatedKeys.Add(float64(deleted))
	c.log.Debug("清除响应缓存", zap.Strings("patterns", patterns), zap.Int("deleted", deleted))
	return deleted, nil
}

// InvalidateQuietly 清除缓存，失败只记录日志
func (c *ResponseCache) InvalidateQuietly(ctx context.Context, patterns ...string) {
	if _, err := c.Invalidate(ctx, patterns...); err != nil {
		c.log.Error("清除响应缓存失败", zap.Strings("patterns", patterns), zap.Error(err))
	}
}
