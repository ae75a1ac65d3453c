package auth

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Blacklist 令牌黑名单，按令牌ID记录
type Blacklist interface {
	// Add 将令牌加入黑名单，直到其过期
	Add(ctx context.Context, tokenID string, expireAt time.Time) error
	// Contains 检查令牌是否已被撤销
	Contains(ctx context.Context, tokenID string) bool
}

const maxLocalBlacklistSize = 10000

// MemoryBlacklist 进程内黑名单，条目在最长令牌有效期后淘汰
type MemoryBlacklist struct {
	tokens *expirable.LRU[string, time.Time]
}

// NewMemoryBlacklist 创建内存黑名单
func NewMemoryBlacklist(ttl time.Duration) *MemoryBlacklist {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &MemoryBlacklist{
		tokens: expirable.NewLRU[string, time.Time](maxLocalBlacklistSize, nil, ttl),
	}
}

// Add 将令牌加入黑名单
func (b *MemoryBlacklist) Add(_ context.Context, tokenID string, expireAt time.Time) error {
	if time.Until(expireAt) <= 0 {
		return nil
	}
	b.tokens.Add(tokenID, expireAt)
	return nil
}

// Contains 检查令牌是否在黑名单中
func (b *MemoryBlacklist) Contains(_ context.Context, tokenID string) bool {
	expireAt, ok := b.tokens.Get(tokenID)
	if !ok {
		return false
	}
	if time.Now().After(expireAt) {
		b.tokens.Remove(tokenID)
		return false
	}
	return true
}
