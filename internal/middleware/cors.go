package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/logger"
)

// 前端需要读取的响应头
var exposedHeaders = strings.Join([]string{
	HeaderCache,
	HeaderTokenExpireSoon,
	"X-RateLimit-Limit",
	"X-RateLimit-Remaining",
	"Retry-After",
	"Content-Disposition",
	logger.HeaderRequestID,
}, ", ")

// Cors 跨域中间件，预检请求直接返回204
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Expose-Headers", exposedHeaders)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
