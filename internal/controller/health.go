package controller

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/pkg/response"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// HealthApi 健康检查
type HealthApi struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewHealthApi(db *gorm.DB, redisClient *redis.Client) *HealthApi {
	return &HealthApi{db: db, redis: redisClient}
}

// Check 返回服务与依赖状态，依赖异常不影响HTTP状态码
func (api *HealthApi) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	response.Success(c, "ok", gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"database":  api.databaseUp(ctx),
		"redis":     api.redisUp(ctx),
	})
}

func (api *HealthApi) databaseUp(ctx context.Context) bool {
	if api.db == nil {
		return false
	}
	sqlDB, err := api.db.DB()
	if err != nil {
		return false
	}
	return sqlDB.PingContext(ctx) == nil
}

func (api *HealthApi) redisUp(ctx context.Context) bool {
	if api.redis == nil {
		return false
	}
	return api.redis.Ping(ctx).Err() == nil
}
