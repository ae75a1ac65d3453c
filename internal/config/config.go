package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config 全局配置结构体
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	MySQL         DatabaseConfig      `mapstructure:"mysql"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Log           LogConfig           `mapstructure:"log"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Upload        UploadConfig        `mapstructure:"upload"`
	AI            AIConfig            `mapstructure:"ai"`
	Cache         CacheConfig         `mapstructure:"cache"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Comment       CommentConfig       `mapstructure:"comment"`
	Captcha       CaptchaConfig       `mapstructure:"captcha"`
	Crawler       CrawlerConfig       `mapstructure:"crawler"`
	Export        ExportConfig        `mapstructure:"export"`
	IP2Region     IP2RegionConfig     `mapstructure:"ip2region"`
	Cron          CronConfig          `mapstructure:"cron"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name string `mapstructure:"name"`
	Mode string `mapstructure:"mode"`
	Port int    `mapstructure:"port"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey            string `mapstructure:"secret_key"`
	AccessExpireSeconds  int    `mapstructure:"access_expire_seconds"`
	RefreshExpireSeconds int    `mapstructure:"refresh_expire_seconds"`
	BufferSeconds        int    `mapstructure:"buffer_seconds"`
	Issuer               string `mapstructure:"issuer"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Charset      string `mapstructure:"charset"`
	SQLitePath   string `mapstructure:"sqlite_path"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogLevel     string `mapstructure:"log_level"`
}

// DSN 获取数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.SQLitePath
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// Addr 获取Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ElasticsearchConfig Elasticsearch配置
type ElasticsearchConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	URLs     []string `mapstructure:"urls"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	Index    string   `mapstructure:"index"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	Type  string       `mapstructure:"type"`
	Local LocalStorage `mapstructure:"local"`
	COS   COSStorage   `mapstructure:"cos"`
}

// LocalStorage 本地存储配置
type LocalStorage struct {
	Path      string `mapstructure:"path"`
	URLPrefix string `mapstructure:"url_prefix"`
}

// COSStorage 腾讯云COS存储配置
type COSStorage struct {
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	BucketURL string `mapstructure:"bucket_url"`
	Prefix    string `mapstructure:"prefix"`
	URLPrefix string `mapstructure:"url_prefix"`
}

// UploadConfig 上传配置
type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
	NodeID       int64    `mapstructure:"node_id"`
}

// AIConfig 生成式文本接口配置
type AIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	APIURL         string  `mapstructure:"api_url"`
	Model          string  `mapstructure:"model"`
	Temperature    float64 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	Retries        int     `mapstructure:"retries"`
}

// Timeout 请求超时时间
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// CacheConfig 响应缓存配置，单位秒
type CacheConfig struct {
	ArticlesTTL int `mapstructure:"articles_ttl"`
	ArticleTTL  int `mapstructure:"article_ttl"`
	TagsTTL     int `mapstructure:"tags_ttl"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	General  RateRule `mapstructure:"general"`
	Login    RateRule `mapstructure:"login"`
	Register RateRule `mapstructure:"register"`
	Comment  RateRule `mapstructure:"comment"`
	Article  RateRule `mapstructure:"article"`
	AI       RateRule `mapstructure:"ai"`
}

// RateRule 单条限流规则
type RateRule struct {
	Limit         int `mapstructure:"limit"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

// Window 时间窗口
func (r RateRule) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// CommentConfig 评论配置
type CommentConfig struct {
	RequireApproval bool   `mapstructure:"require_approval"`
	SensitiveWords  string `mapstructure:"sensitive_words"`
}

// CaptchaConfig 验证码配置
type CaptchaConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	KeyLong   int  `mapstructure:"key_long"`
	ImgWidth  int  `mapstructure:"img_width"`
	ImgHeight int  `mapstructure:"img_height"`
}

// CrawlerConfig 番剧抓取配置
type CrawlerConfig struct {
	UserAgent      string  `mapstructure:"user_agent"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
}

// ExportConfig 导出配置
type ExportConfig struct {
	PDFFont string `mapstructure:"pdf_font"`
}

// IP2RegionConfig IP归属地库配置
type IP2RegionConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// CronConfig 定时任务配置
type CronConfig struct {
	Timezone   string `mapstructure:"timezone"`
	FlushViews string `mapstructure:"flush_views"`
	SaveBloom  string `mapstructure:"save_bloom"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
	// 配置Viper实例
	viperInstance *viper.Viper
	mu            sync.RWMutex
)

// setDefaults 注册默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "blog-platform")
	v.SetDefault("app.mode", "debug")
	v.SetDefault("app.port", 8080)

	v.SetDefault("mysql.driver", "mysql")
	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.charset", "utf8mb4")
	v.SetDefault("mysql.sqlite_path", "blog.db")
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.max_open_conns", 100)
	v.SetDefault("mysql.log_level", "warn")

	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("elasticsearch.index", "articles")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.stdout", true)

	// 空默认值让 JWT_SECRET_KEY 等环境变量可以覆盖
	v.SetDefault("jwt.secret_key", "")
	v.SetDefault("jwt.access_expire_seconds", 7*24*3600)
	v.SetDefault("jwt.refresh_expire_seconds", 30*24*3600)
	v.SetDefault("jwt.buffer_seconds", 3600)
	v.SetDefault("jwt.issuer", "blog-platform")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local.path", "uploads")
	v.SetDefault("storage.local.url_prefix", "/uploads")

	v.SetDefault("upload.max_size", 5<<20)
	v.SetDefault("upload.allowed_types", []string{".jpg", ".jpeg", ".png", ".gif", ".webp"})
	v.SetDefault("upload.node_id", 1)

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.api_url", "https://ark.cn-beijing.volces.com/api/v3/chat/completions")
	v.SetDefault("ai.model", "deepseek-v3-2-251201")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.max_tokens", 2000)
	v.SetDefault("ai.timeout_seconds", 30)
	v.SetDefault("ai.retries", 2)

	v.SetDefault("cache.articles_ttl", 300)
	v.SetDefault("cache.article_ttl", 300)
	v.SetDefault("cache.tags_ttl", 3600)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.general.limit", 10000)
	v.SetDefault("rate_limit.general.window_seconds", 900)
	v.SetDefault("rate_limit.login.limit", 500)
	v.SetDefault("rate_limit.login.window_seconds", 900)
	v.SetDefault("rate_limit.register.limit", 300)
	v.SetDefault("rate_limit.register.window_seconds", 3600)
	v.SetDefault("rate_limit.comment.limit", 300)
	v.SetDefault("rate_limit.comment.window_seconds", 60)
	v.SetDefault("rate_limit.article.limit", 1000)
	v.SetDefault("rate_limit.article.window_seconds", 3600)
	v.SetDefault("rate_limit.ai.limit", 500)
	v.SetDefault("rate_limit.ai.window_seconds", 60)

	v.SetDefault("captcha.key_long", 4)
	v.SetDefault("captcha.img_width", 240)
	v.SetDefault("captcha.img_height", 80)

	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("crawler.timeout_seconds", 15)
	v.SetDefault("crawler.rate_per_second", 1)

	v.SetDefault("cron.timezone", "Asia/Shanghai")
	v.SetDefault("cron.flush_views", "0 */1 * * * *")
	v.SetDefault("cron.save_bloom", "0 */10 * * * *")
}

// Init 初始化配置
func Init(configPath string) error {
	// .env 仅用于本地开发，不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("加载.env失败: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(configPath)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}

	mu.Lock()
	GlobalConfig = &cfg
	viperInstance = v
	mu.Unlock()
	return nil
}

// Default 返回仅包含默认值的配置，测试和命令行工具使用
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Watch 监听配置文件变化，限流、缓存和AI配置支持热更新
func Watch(log *zap.Logger, onChange func(cfg *Config, e fsnotify.Event)) {
	mu.RLock()
	v := viperInstance
	mu.RUnlock()
	if v == nil || v.ConfigFileUsed() == "" {
		return
	}
	if log == nil {
		log = zap.NewNop()
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		current, err := reload(v)
		if err != nil {
			log.Error("重新加载配置失败，沿用旧配置", zap.String("file", e.Name), zap.Error(err))
			return
		}
		if onChange != nil {
			onChange(current, e)
		}
	})
	v.WatchConfig()
}

// reload 解析最新配置，仅替换可热更新的部分
func reload(v *viper.Viper) (*Config, error) {
	var next Config
	if err := v.Unmarshal(&next); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	current := Default()
	if GlobalConfig != nil {
		copied := *GlobalConfig
		current = &copied
	}
	current.RateLimit = next.RateLimit
	current.Cache = next.Cache
	current.AI = next.AI
	GlobalConfig = current
	return current, nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	mu.RLock()
	defer mu.RUnlock()
	if GlobalConfig == nil {
		return Default()
	}
	return GlobalConfig
}
