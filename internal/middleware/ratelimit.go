package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/nsxzhou1114/blog-platform/internal/config"
	"github.com/nsxzhou1114/blog-platform/pkg/metrics"
	"github.com/nsxzhou1114/blog-platform/pkg/response"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 限流规则名称
const (
	RuleGeneral  = "general"
	RuleLogin    = "login"
	RuleRegister = "register"
	RuleComment  = "comment"
	RuleArticle  = "article"
	RuleAI       = "ai"
)

// Counter 固定窗口计数器
type Counter interface {
	// Incr 计数加一，返回当前窗口内的次数与窗口剩余时间
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	// Decr 撤销一次计数
	Decr(ctx context.Context, key string) error
}

// RedisCounter 基于 INCR + PEXPIRE 的计数器，多实例共享
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter 创建Redis计数器
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr 计数加一，首次计数时设置窗口过期
func (r *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pttl := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	ttl := pttl.Val()
	if ttl < 0 {
		if err := r.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = window
	}
	return incr.Val(), ttl, nil
}

// Decr 撤销一次计数
func (r *RedisCounter) Decr(ctx context.Context, key string) error {
	return r.client.Decr(ctx, key).Err()
}

type memoryWindow struct {
	count   int64
	resetAt time.Time
}

const (
	maxMemoryCounters = 100000
	memoryCounterTTL  = 24 * time.Hour
)

// MemoryCounter 进程内计数器，Redis关闭时使用
type MemoryCounter struct {
	mu      sync.Mutex
	windows *expirable.LRU[string, *memoryWindow]
	now     func() time.Time
}

// NewMemoryCounter 创建内存计数器
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{
		windows: expirable.NewLRU[string, *memoryWindow](maxMemoryCounters, nil, memoryCounterTTL),
		now:     time.Now,
	}
}

// Incr 计数加一，窗口结束后重新计数
func (m *MemoryCounter) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows.Get(key)
	if !ok || !now.Before(w.resetAt) {
		w = &memoryWindow{resetAt: now.Add(window)}
		m.windows.Add(key, w)
	}
	w.count++
	return w.count, w.resetAt.Sub(now), nil
}

// Decr 撤销一次计数
func (m *MemoryCounter) Decr(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w, ok := m.windows.Peek(key); ok && w.count > 0 {
		w.count--
	}
	return nil
}

// RateLimiter 按规则与客户端IP限流，规则每次请求时读取以支持热更新
type RateLimiter struct {
	counter Counter
	rules   func() config.RateLimitConfig
	log     *zap.Logger
}

// NewRateLimiter 创建限流器，client 为 nil 时使用内存计数
func NewRateLimiter(client *redis.Client, rules func() config.RateLimitConfig, log *zap.Logger) *RateLimiter {
	var counter Counter = NewMemoryCounter()
	if client != nil {
		counter = NewRedisCounter(client)
	}
	return NewRateLimiterWithCounter(counter, rules, log)
}

// NewRateLimiterWithCounter 使用指定计数器创建限流器
func NewRateLimiterWithCounter(counter Counter, rules func() config.RateLimitConfig, log *zap.Logger) *RateLimiter {
	if rules == nil {
		rules = func() config.RateLimitConfig { return config.GetConfig().RateLimit }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{counter: counter, rules: rules, log: log}
}

func ruleByName(cfg config.RateLimitConfig, name string) (config.RateRule, bool) {
	switch name {
	case RuleGeneral:
		return cfg.General, true
	case RuleLogin:
		return cfg.Login, true
	case RuleRegister:
		return cfg.Register, true
	case RuleComment:
		return cfg.Comment, true
	case RuleArticle:
		return cfg.Article, true
	case RuleAI:
		return cfg.AI, true
	}
	return config.RateRule{}, false
}

// Limit 返回指定规则的限流中间件，计数出错时放行
func (l *RateLimiter) Limit(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := l.rules()
		rule, ok := ruleByName(cfg, name)
		if !cfg.Enabled || !ok || rule.Limit <= 0 || rule.WindowSeconds <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "ratelimit:" + name + ":" + c.ClientIP()
		count, ttl, err := l.counter.Incr(ctx, key, rule.Window())
		if err != nil {
			l.log.Warn("限流计数失败，放行请求", zap.String("rule", name), zap.Error(err))
			c.Next()
			return
		}

		remaining := int64(rule.Limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.Limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rule.Limit) {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
			metrics.RateLimited.WithLabelValues(name).Inc()
			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()

		// 登录成功不计入登录限流
		if name == RuleLogin && c.Writer.Status() < http.StatusBadRequest {
			if err := l.counter.Decr(ctx, key); err != nil {
				l.log.Warn("撤销限流计数失败", zap.String("rule", name), zap.Error(err))
			}
		}
	}
}
