package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/fsnotify/fsnotify"
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/config"
	"github.com/nsxzhou1114/blog-platform/internal/cron"
	"github.com/nsxzhou1114/blog-platform/internal/database"
	"github.com/nsxzhou1114/blog-platform/internal/logger"
	"github.com/nsxzhou1114/blog-platform/internal/middleware"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/internal/router"
	"github.com/nsxzhou1114/blog-platform/internal/service"
	"github.com/nsxzhou1114/blog-platform/pkg/auth"
	"github.com/nsxzhou1114/blog-platform/pkg/cache"
	"github.com/nsxzhou1114/blog-platform/pkg/export"
	"github.com/nsxzhou1114/blog-platform/pkg/idgen"
	"github.com/nsxzhou1114/blog-platform/pkg/iplocation"
	"github.com/nsxzhou1114/blog-platform/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	bloomCapacity  = 100000
	bloomErrorRate = 0.01
)

var configPath string

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "blog-platform",
	Short: "博客平台服务",
	Long:  `博客平台后端，提供文章、标签、评论、番剧、AI写作与图片上传接口`,
}

// serveCmd 启动服务命令
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动HTTP服务",
	Long:  `启动博客平台的HTTP服务器`,
	Run: func(cmd *cobra.Command, args []string) {
		startServer()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "./config", "配置文件目录")
	rootCmd.AddCommand(serveCmd)
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// initializeSystem 加载配置、初始化日志并连接数据库
func initializeSystem() (*gorm.DB, error) {
	if err := config.Init(configPath); err != nil {
		return nil, fmt.Errorf("配置初始化失败: %v", err)
	}
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("日志初始化失败: %v", err)
	}

	db, err := database.Open(&config.GetConfig().MySQL)
	if err != nil {
		return nil, err
	}
	if err := model.InitTables(db); err != nil {
		return nil, fmt.Errorf("初始化数据库表失败: %v", err)
	}
	return db, nil
}

// components 服务依赖图
type components struct {
	cfg     *config.Config
	db      *gorm.DB
	redis   *redis.Client
	es      *elasticsearch.Client
	tokens  *auth.Manager
	cache   *cache.ResponseCache
	bloom   *cache.ArticleFilter
	storage storage.Storage

	search   *service.ArticleSearchService
	tags     *service.TagService
	articles *service.ArticleService
	users    *service.UserService
	comments *service.CommentService
	anime    *service.AnimeService
	ai       *service.AIService
	uploads  *service.UploadService
	exports  *service.ExportService
}

// buildComponents 组装全部服务，Redis 与 Elasticsearch 不可用时相关功能自动关闭
func buildComponents(db *gorm.DB) (*components, error) {
	cfg := config.GetConfig()
	log := logger.GetSugaredLogger()

	c := &components{cfg: cfg, db: db}
	c.redis = database.GetRedis()
	c.es = database.GetES()
	c.cache = cache.NewResponseCache(c.redis, logger.GetLogger())
	c.bloom = cache.NewArticleFilter(c.redis, bloomCapacity, bloomErrorRate)

	var blacklist auth.Blacklist
	if c.redis != nil {
		blacklist = auth.NewRedisBlacklist(c.redis, time.Duration(cfg.JWT.AccessExpireSeconds)*time.Second, logger.GetLogger())
	}
	c.tokens = auth.NewManager(cfg.JWT, blacklist)

	var views *cache.ViewBuffer
	if c.redis != nil {
		views = cache.NewViewBuffer(c.redis)
	}

	c.search = service.NewArticleSearchService(db, c.es, cfg.Elasticsearch.Index, log)
	c.tags = service.NewTagService(db, c.cache, log)
	c.articles = service.NewArticleService(service.ArticleServiceDeps{
		DB:     db,
		Log:    log,
		Cache:  c.cache,
		Bloom:  c.bloom,
		Views:  views,
		Search: c.search,
		Tags:   c.tags,
	})

	var captcha *service.CaptchaService
	if cfg.Captcha.Enabled {
		captcha = service.NewCaptchaService(cfg.Captcha)
	}
	c.users = service.NewUserService(db, c.tokens, captcha, log)

	sensitive := service.NewSensitiveService(log)
	if cfg.Comment.SensitiveWords != "" {
		if err := sensitive.LoadFile(cfg.Comment.SensitiveWords); err != nil {
			log.Warnf("加载敏感词失败: %v", err)
		}
	}
	locator, err := iplocation.New(cfg.IP2Region.DBPath)
	if err != nil {
		log.Warnf("IP归属地库不可用: %v", err)
	}
	c.comments = service.NewCommentService(db, sensitive, locator, cfg.Comment.RequireApproval, log)

	c.anime = service.NewAnimeService(db, service.NewAnimeCrawler(cfg.Crawler), log)
	c.ai = service.NewAIServiceFromConfig(cfg.AI, log)
	font, ok := export.ResolveFont(cfg.Export.PDFFont, export.DefaultFontCandidates...)
	if !ok {
		log.Warn("未找到中文字体，PDF导出中的中文将无法显示，请配置 export.pdf_font")
	}
	c.exports = service.NewExportService(c.articles, export.New(export.Options{PDFFont: font}))

	c.storage, err = storage.New(cfg.Storage)
	if err != nil {
		return nil, err
	}
	ids, err := idgen.New(cfg.Upload.NodeID)
	if err != nil {
		return nil, err
	}
	c.uploads = service.NewUploadService(c.storage, ids, cfg.Upload.MaxSize, cfg.Upload.AllowedTypes, log)
	return c, nil
}

// warmUp 创建检索索引并预热布隆过滤器
func (c *components) warmUp(ctx context.Context) {
	if c.search.Enabled() {
		if err := c.search.EnsureIndex(ctx); err != nil {
			logger.Warn("创建文章索引失败", zap.Error(err))
		}
	}

	n, err := c.articles.WarmBloom(ctx)
	if err == nil {
		logger.Info("布隆过滤器预热完成", zap.Int("articles", n))
		return
	}
	logger.Warn("预热布隆过滤器失败，尝试从Redis恢复", zap.Error(err))
	if loaded, err := c.bloom.LoadFromRedis(ctx); err != nil || !loaded {
		logger.Warn("布隆过滤器不可用，详情请求不做预检", zap.Error(err))
	}
}

// startServer 启动HTTP服务
func startServer() {
	db, err := initializeSystem()
	if err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	c, err := buildComponents(db)
	if err != nil {
		logger.Fatal("服务组装失败", zap.Error(err))
	}
	c.warmUp(context.Background())

	// 限流与缓存TTL每次请求读取配置，AI客户端需要按新配置重建
	config.Watch(logger.GetLogger(), func(cfg *config.Config, e fsnotify.Event) {
		c.ai.Reload(cfg.AI)
		logger.Info("配置已重新加载", zap.String("file", e.Name))
	})

	scheduler, err := cron.New(c.cfg.Cron, c.articles, logger.GetSugaredLogger())
	if err != nil {
		logger.Fatal("定时任务初始化失败", zap.Error(err))
	}
	scheduler.Start()

	gin.SetMode(c.cfg.App.Mode)
	r := router.New(&router.Deps{
		DB:       c.db,
		Redis:    c.redis,
		Tokens:   c.tokens,
		Cache:    c.cache,
		Limiter:  middleware.NewRateLimiter(c.redis, nil, logger.GetLogger()),
		Storage:  c.storage,
		Logger:   logger.GetSugaredLogger(),
		Users:    c.users,
		Articles: c.articles,
		Exports:  c.exports,
		Tags:     c.tags,
		Comments: c.comments,
		Anime:    c.anime,
		AI:       c.ai,
		Uploads:  c.uploads,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", c.cfg.App.Port),
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP服务启动失败", zap.Error(err))
		}
	}()
	logger.Info("服务已启动", zap.String("addr", srv.Addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务关闭异常", zap.Error(err))
	}
	scheduler.Stop(ctx)

	// 关闭前落库剩余阅读量并保存过滤器
	if _, err := c.articles.FlushViews(ctx); err != nil {
		logger.Warn("阅读量落库失败", zap.Error(err))
	}
	if err := c.articles.SaveBloom(ctx); err != nil {
		logger.Warn("保存布隆过滤器失败", zap.Error(err))
	}
	if c.redis != nil {
		_ = c.redis.Close()
	}

	logger.Info("服务已关闭")
}
