package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ViewBuffer 在Redis哈希中累积文章阅读量，由定时任务批量落库
type ViewBuffer struct {
	client *redis.Client
	key    string
}

// NewViewBuffer 创建阅读量缓冲
func NewViewBuffer(client *redis.Client) *ViewBuffer {
	return &ViewBuffer{client: client, key: ArticleViewsKey}
}

// Incr 阅读量加一
func (b *ViewBuffer) Incr(ctx context.Context, articleID uint) error {
	return b.client.HIncrBy(ctx, b.key, strconv.FormatUint(uint64(articleID), 10), 1).Err()
}

// Drain 取出当前累积的阅读量并从缓冲中扣除
// 扣除使用 HINCRBY 负数，读取之后新增的计数不会丢失
func (b *ViewBuffer) Drain(ctx context.Context) (map[uint]int64, error) {
	raw, err := b.client.HGetAll(ctx, b.key).Result()
	if err != nil {
		return nil, fmt.Errorf("读取阅读量缓冲失败: %w", err)
	}

	counts := make(map[uint]int64, len(raw))
	for field, value := range raw {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			continue
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			continue
		}
		counts[uint(id)] = n
	}
	if len(counts) == 0 {
		return counts, nil
	}

	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, n := range counts {
			pipe.HIncrBy(ctx, b.key, strconv.FormatUint(uint64(id), 10), -n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("扣除阅读量缓冲失败: %w", err)
	}
	return counts, nil
}

// Restore 落库失败时把计数加回缓冲
func (b *ViewBuffer) Restore(ctx context.Context, counts map[uint]int64) error {
	if len(counts) == 0 {
		return nil
	}
	_, err := b.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, n := range counts {
			pipe.HIncrBy(ctx, b.key, strconv.FormatUint(uint64(id), 10), n)
		}
		return nil
	})
	return err
}
