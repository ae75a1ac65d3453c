package cache

import (
	"fmt"
	"time"
)

// 响应缓存前缀
const (
	PrefixArticles = "articles"
	PrefixArticle  = "article"
	PrefixTags     = "tags"
)

// 默认过期时间
const (
	ArticleListExpiration   = 5 * time.Minute
	ArticleDetailExpiration = 5 * time.Minute
	TagListExpiration       = time.Hour
	BloomFilterExpiration   = 24 * time.Hour
)

// 其他缓存键
const (
	BloomFilterArticleKey = "bloom:article:exists"
	ArticleViewsKey       = "article:views:pending"
)

// ArticleListPattern 匹配所有文章列表缓存
func ArticleListPattern() string {
	return PrefixArticles + ":*"
}

// ArticleDetailPattern 匹配指定文章的所有详情缓存
func ArticleDetailPattern(id uint) string {
	return fmt.Sprintf("%s:%d:*", PrefixArticle, id)
}

// AllArticleDetailPattern 匹配全部文章详情缓存
func AllArticleDetailPattern() string {
	return PrefixArticle + ":*"
}

// TagListPattern 匹配所有标签列表缓存
func TagListPattern() string {
	return PrefixTags + ":*"
}
