package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nsxzhou1114/blog-platform/internal/config"
	"github.com/nsxzhou1114/blog-platform/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis 全局Redis客户端实例，未启用或不可用时为 nil
var (
	Redis    *redis.Client
	redisOne sync.Once
)

// InitRedis 初始化Redis连接
func InitRedis(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接redis失败: %w", err)
	}

	logger.Info("redis连接成功", zap.String("addr", cfg.Addr()))
	return client, nil
}

// GetRedis 获取Redis客户端实例
// Redis 不可用时返回 nil，调用方据此关闭缓存，服务照常运行
func GetRedis() *redis.Client {
	redisOne.Do(func() {
		cfg := config.GetConfig().Redis
		if !cfg.Enabled {
			logger.Warn("redis未启用，缓存已关闭")
			return
		}
		client, err := InitRedis(&cfg)
		if err != nil {
			logger.Warn("redis不可用，缓存已关闭", zap.Error(err))
			return
		}
		Redis = client
	})
	return Redis
}
