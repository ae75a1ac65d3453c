package middleware

import "github.com/gin-gonic/gin"

// CamelQueryAliases 前端使用的驼峰查询参数与服务端参数的对应关系
var CamelQueryAliases = map[string]string{
	"pageSize":   "page_size",
	"authorId":   "author_id",
	"tagId":      "tag_id",
	"sortBy":     "sort_by",
	"sortOrder":  "order",
	"animeClass": "anime_class",
	"withCount":  "with_count",
}

// QueryAliases 将别名查询参数改写为规范名称，规范名称已存在时以其为准
// 改写发生在缓存之前，两种写法共用同一缓存条目
func QueryAliases(aliases map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.RawQuery == "" {
			c.Next()
			return
		}
		query := c.Request.URL.Query()
		changed := false
		for alias, name := range aliases {
			values, ok := query[alias]
			if !ok {
				continue
			}
			if _, exists := query[name]; !exists {
				query[name] = values
			}
			delete(query, alias)
			changed = true
		}
		if changed {
			c.Request.URL.RawQuery = query.Encode()
		}
		c.Next()
	}
}
