package router

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/config"
	"github.com/nsxzhou1114/blog-platform/internal/controller"
	"github.com/nsxzhou1114/blog-platform/internal/logger"
	"github.com/nsxzhou1114/blog-platform/internal/middleware"
	"github.com/nsxzhou1114/blog-platform/internal/service"
	"github.com/nsxzhou1114/blog-platform/pkg/auth"
	"github.com/nsxzhou1114/blog-platform/pkg/cache"
	"github.com/nsxzhou1114/blog-platform/pkg/metrics"
	"github.com/nsxzhou1114/blog-platform/pkg/storage"
	"github.com/nsxzhou1114/blog-platform/pkg/validate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps 路由依赖的服务与基础设施
type Deps struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Tokens  *auth.Manager
	Cache   *cache.ResponseCache
	Limiter *middleware.RateLimiter
	Storage storage.Storage
	Logger  *zap.SugaredLogger

	Users    *service.UserService
	Articles *service.ArticleService
	Exports  *service.ExportService
	Tags     *service.TagService
	Comments *service.CommentService
	Anime    *service.AnimeService
	AI       *service.AIService
	Uploads  *service.UploadService
}

// New 创建并注册全部路由
func New(d *Deps) *gin.Engine {
	if err := validate.Register(); err != nil {
		logger.Warn("注册自定义校验规则失败", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogger(), middleware.Cors(), metrics.Middleware(), middleware.QueryAliases(middleware.CamelQueryAliases))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 本地存储时提供上传文件的静态访问
	if local, ok := d.Storage.(*storage.Local); ok && strings.HasPrefix(local.URLPrefix(), "/") {
		r.Static(local.URLPrefix(), local.Dir())
	}

	api := r.Group("/api", d.Limiter.Limit(middleware.RuleGeneral))
	api.GET("/health", controller.NewHealthApi(d.DB, d.Redis).Check)

	setupAuthRoutes(api, d)
	setupArticleRoutes(api, d)
	setupTagRoutes(api, d)
	setupCommentRoutes(api, d)
	setupAnimeRoutes(api, d)
	setupAIRoutes(api, d)
	setupUploadRoutes(api, d)

	return r
}

// cacheTTL 每次读取配置，支持热更新
func cacheTTL(pick func(config.CacheConfig) int, fallback time.Duration) func() time.Duration {
	return func() time.Duration {
		if seconds := pick(config.GetConfig().Cache); seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
		return fallback
	}
}

// setupAuthRoutes 认证与个人资料
func setupAuthRoutes(api *gin.RouterGroup, d *Deps) {
	userApi := controller.NewUserApi(d.Users, d.Logger)
	jwt := middleware.JWTAuth(d.Tokens)

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", d.Limiter.Limit(middleware.RuleRegister), userApi.Register)
		authRoutes.POST("/login", d.Limiter.Limit(middleware.RuleLogin), userApi.Login)
		authRoutes.POST("/refresh", userApi.RefreshToken)
		authRoutes.GET("/captcha", userApi.Captcha)

		authRoutes.POST("/logout", jwt, userApi.Logout)
		authRoutes.GET("/profile", jwt, userApi.Profile)
		authRoutes.PUT("/profile", jwt, userApi.UpdateProfile)
	}
}

// setupArticleRoutes 文章，列表与详情走响应缓存
func setupArticleRoutes(api *gin.RouterGroup, d *Deps) {
	articleApi := controller.NewArticleApi(d.Articles, d.Exports, d.Logger)
	optional := middleware.OptionalAuth(d.Tokens)
	jwt := middleware.JWTAuth(d.Tokens)

	listTTL := cacheTTL(func(c config.CacheConfig) int { return c.ArticlesTTL }, cache.ArticleListExpiration)
	detailTTL := cacheTTL(func(c config.CacheConfig) int { return c.ArticleTTL }, cache.ArticleDetailExpiration)

	articleRoutes := api.Group("/articles")
	{
		articleRoutes.GET("", optional,
			middleware.Cache(d.Cache, cache.PrefixArticles, listTTL, middleware.RequestURIKey),
			articleApi.List)
		// 浏览计数在缓存之前，缓存命中同样计数
		articleRoutes.GET("/:id", optional,
			middleware.CountView(d.Articles),
			middleware.Cache(d.Cache, cache.PrefixArticle, detailTTL, middleware.ArticleDetailKey),
			articleApi.GetDetail)
		articleRoutes.GET("/:id/export", optional, articleApi.Export)
		articleRoutes.POST("/:id/like", articleApi.Like)

		articleRoutes.POST("", jwt, d.Limiter.Limit(middleware.RuleArticle), articleApi.Create)
		articleRoutes.PUT("/:id", jwt, articleApi.Update)
		articleRoutes.DELETE("/:id", jwt, articleApi.Delete)
	}
}

// setupTagRoutes 标签，写操作仅管理员
func setupTagRoutes(api *gin.RouterGroup, d *Deps) {
	tagApi := controller.NewTagApi(d.Tags, d.Logger)
	admin := middleware.AdminAuth(d.Tokens)
	listTTL := cacheTTL(func(c config.CacheConfig) int { return c.TagsTTL }, cache.TagListExpiration)

	tagRoutes := api.Group("/tags")
	{
		tagRoutes.GET("", middleware.Cache(d.Cache, cache.PrefixTags, listTTL, middleware.RequestURIKey), tagApi.List)
		tagRoutes.POST("", admin, tagApi.Create)
		tagRoutes.PUT("/:id", admin, tagApi.Update)
		tagRoutes.DELETE("/:id", admin, tagApi.Delete)
	}
}

// setupCommentRoutes 评论
func setupCommentRoutes(api *gin.RouterGroup, d *Deps) {
	commentApi := controller.NewCommentApi(d.Comments, d.Logger)
	jwt := middleware.JWTAuth(d.Tokens)
	admin := middleware.AdminAuth(d.Tokens)

	commentRoutes := api.Group("/comments")
	{
		commentRoutes.GET("/article/:articleId", commentApi.ListByArticle)
		commentRoutes.POST("/article/:articleId", jwt, d.Limiter.Limit(middleware.RuleComment), commentApi.Create)
		commentRoutes.GET("/pending", admin, commentApi.Pending)
		commentRoutes.PUT("/:id/approve", admin, commentApi.Approve)
		commentRoutes.DELETE("/:id", jwt, commentApi.Delete)
	}
}

// setupAnimeRoutes 番剧
func setupAnimeRoutes(api *gin.RouterGroup, d *Deps) {
	animeApi := controller.NewAnimeApi(d.Anime, d.Logger)
	jwt := middleware.JWTAuth(d.Tokens)

	animeRoutes := api.Group("/anime")
	{
		animeRoutes.GET("/list", animeApi.List)
		animeRoutes.GET("/stats", animeApi.Stats)
		animeRoutes.GET("/:id", animeApi.GetDetail)

		animeRoutes.POST("/crawl", jwt, animeApi.Crawl)
		animeRoutes.POST("", jwt, animeApi.Create)
		animeRoutes.PUT("/:id", jwt, animeApi.Update)
		animeRoutes.DELETE("/:id", jwt, animeApi.Delete)
	}
}

// setupAIRoutes AI写作助手
func setupAIRoutes(api *gin.RouterGroup, d *Deps) {
	aiApi := controller.NewAIApi(d.AI, d.Logger)
	api.POST("/ai/generate", middleware.JWTAuth(d.Tokens), d.Limiter.Limit(middleware.RuleAI), aiApi.Generate)
}

// setupUploadRoutes 图片上传
func setupUploadRoutes(api *gin.RouterGroup, d *Deps) {
	uploadApi := controller.NewUploadApi(d.Uploads, d.Logger)

	uploadRoutes := api.Group("/upload", middleware.JWTAuth(d.Tokens))
	{
		uploadRoutes.POST("/image", uploadApi.UploadImage)
		uploadRoutes.DELETE("/image/:filename", uploadApi.DeleteImage)
	}
}
