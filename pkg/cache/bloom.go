package cache

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/redis/go-redis/v9"
)

// ArticleFilter 文章存在性布隆过滤器，拦截不存在文章的详情请求
// 预热完成前 Test 恒为 true，不影响正常查询
type ArticleFilter struct {
	filter    *bloom.BloomFilter
	client    *redis.Client
	redisKey  string
	mutex     sync.RWMutex
	capacity  uint    // 预期元素数量
	errorRate float64 // 误判率
	ready     bool
}

// NewArticleFilter 创建文章布隆过滤器，client 可为空
func NewArticleFilter(client *redis.Client, capacity uint, errorRate float64) *ArticleFilter {
	return &ArticleFilter{
		filter:    bloom.NewWithEstimates(capacity, errorRate),
		client:    client,
		redisKey:  BloomFilterArticleKey,
		capacity:  capacity,
		errorRate: errorRate,
	}
}

func articleKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Add 添加文章ID
func (f *ArticleFilter) Add(id uint) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.filter.AddString(articleKey(id))
}

// Test 文章是否可能存在
func (f *ArticleFilter) Test(id uint) bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	if !f.ready {
		return true
	}
	return f.filter.TestString(articleKey(id))
}

// Warm 用全量文章ID重建过滤器
func (f *ArticleFilter) Warm(ids []uint) {
	filter := bloom.NewWithEstimates(f.capacity, f.errorRate)
	for _, id := range ids {
		filter.AddString(articleKey(id))
	}

	f.mutex.Lock()
	f.filter = filter
	f.ready = true
	f.mutex.Unlock()
}

// Ready 是否已预热
func (f *ArticleFilter) Ready() bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return f.ready
}

// SaveToRedis 保存布隆过滤器到Redis
func (f *ArticleFilter) SaveToRedis(ctx context.Context) error {
	if f.client == nil {
		return nil
	}

	f.mutex.RLock()
	data, err := f.filter.GobEncode()
	f.mutex.RUnlock()
	if err != nil {
		return fmt.Errorf("encode bloom filter failed: %w", err)
	}

	encoded := base64.StdEncoding.EncodeToString(data)
	return f.client.Set(ctx, f.redisKey, encoded, BloomFilterExpiration).Err()
}

// LoadFromRedis 从Redis恢复布隆过滤器，不存在时返回 false
func (f *ArticleFilter) LoadFromRedis(ctx context.Context) (bool, error) {
	if f.client == nil {
		return false, nil
	}

	encoded, err := f.client.Get(ctx, f.redisKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get bloom filter from redis failed: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false, fmt.Errorf("decode bloom filter data failed: %w", err)
	}

	filter := &bloom.BloomFilter{}
	if err := filter.GobDecode(data); err != nil {
		return false, fmt.Errorf("decode bloom filter failed: %w", err)
	}

	f.mutex.Lock()
	f.filter = filter
	f.ready = true
	f.mutex.Unlock()
	return true, nil
}
