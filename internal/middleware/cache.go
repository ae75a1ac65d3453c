package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/logger"
	"github.com/nsxzhou1114/blog-platform/pkg/cache"
	"go.uber.org/zap"
)

const (
	// HeaderCache 缓存命中状态响应头
	HeaderCache = "X-Cache"

	skipStoreKey = "cache.skipStore"
)

// KeyFunc 根据请求计算缓存键后缀
type KeyFunc func(c *gin.Context) string

// RequestURIKey 以完整请求URI作为键
func RequestURIKey(c *gin.Context) string {
	return c.Request.URL.RequestURI()
}

// ArticleDetailKey 文章详情键 <id>:<uri>，便于按文章ID失效
// ID 统一为十进制规范形式，/articles/01 与 /articles/1 落在同一失效模式下
func ArticleDetailKey(c *gin.Context) string {
	id := c.Param("id")
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		id = strconv.FormatUint(n, 10)
	}
	return id + ":" + c.Request.URL.RequestURI()
}

// SkipStore 标记本次响应不写入缓存，如草稿或仅作者可见的列表
func SkipStore(c *gin.Context) {
	c.Set(skipStoreKey, true)
}

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache 旁路缓存中间件，仅处理GET请求
// 命中时直接返回已缓存的JSON并中止后续处理，未命中时缓存200响应
func Cache(rc *cache.ResponseCache, prefix string, ttl func() time.Duration, keyFn KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || !rc.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := cache.Key(prefix, keyFn(c))
		if body, ok := rc.Get(ctx, prefix, key); ok {
			c.Header(HeaderCache, "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		c.Header(HeaderCache, "MISS")
		writer := &bodyCaptureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer

		c.Next()

		if writer.Status() != http.StatusOK || c.GetBool(skipStoreKey) || writer.body.Len() == 0 {
			return
		}
		if err := rc.Set(ctx, key, writer.body.Bytes(), ttl()); err != nil {
			logger.Warn("写入响应缓存失败", zap.String("key", key), zap.Error(err))
		}
	}
}

// ViewRecorder 记录文章浏览
type ViewRecorder interface {
	RecordView(ctx context.Context, id uint)
}

// CountView 文章详情返回200时计数浏览量，需放在缓存中间件之前以统计缓存命中
func CountView(recorder ViewRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() != http.StatusOK {
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || id == 0 {
			return
		}
		recorder.RecordView(c.Request.Context(), uint(id))
	}
}
