package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/spf13/cobra"
)

// statsCmd 统计命令
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "统计信息命令",
	Long:  `显示系统统计信息，包括用户、文章、评论、番剧等数据`,
}

// systemStatsCmd 系统统计命令
var systemStatsCmd = &cobra.Command{
	Use:   "system",
	Short: "系统统计信息",
	Long:  `显示系统整体统计信息`,
	Run: func(cmd *cobra.Command, args []string) {
		showSystemStats()
	},
}

// articleStatsCmd 文章统计命令
var articleStatsCmd = &cobra.Command{
	Use:   "articles",
	Short: "文章统计信息",
	Long:  `显示文章状态分布与热门文章`,
	Run: func(cmd *cobra.Command, args []string) {
		showArticleStats()
	},
}

// animeStatsCmd 番剧统计命令
var animeStatsCmd = &cobra.Command{
	Use:   "anime",
	Short: "番剧统计信息",
	Run: func(cmd *cobra.Command, args []string) {
		showAnimeStats()
	},
}

// dbStatusCmd 依赖状态命令
var dbStatusCmd = &cobra.Command{
	Use:   "db-status",
	Short: "依赖状态",
	Long:  `显示数据库、Redis 与 Elasticsearch 的连接状态`,
	Run: func(cmd *cobra.Command, args []string) {
		showDependencyStatus()
	},
}

func init() {
	statsCmd.AddCommand(systemStatsCmd)
	statsCmd.AddCommand(articleStatsCmd)
	statsCmd.AddCommand(animeStatsCmd)
	statsCmd.AddCommand(dbStatusCmd)

	rootCmd.AddCommand(statsCmd)
}

type statusCount struct {
	Status string
	Count  int64
}

// showSystemStats 显示系统统计信息
func showSystemStats() {
	db, err := initializeSystem()
	if err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}

	var userCount, adminCount, tagCount, animeCount int64
	db.Model(&model.User{}).Count(&userCount)
	db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&adminCount)
	db.Model(&model.Tag{}).Count(&tagCount)
	db.Model(&model.Anime{}).Count(&animeCount)

	var articleStats, commentStats []statusCount
	db.Model(&model.Article{}).Select("status, COUNT(*) AS count").Group("status").Scan(&articleStats)
	db.Model(&model.Comment{}).Select("status, COUNT(*) AS count").Group("status").Scan(&commentStats)

	now := time.Now()
	since := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var todayArticles, todayComments int64
	db.Model(&model.Article{}).Where("created_at >= ?", since).Count(&todayArticles)
	db.Model(&model.Comment{}).Where("created_at >= ?", since).Count(&todayComments)

	fmt.Println("=== 系统统计信息 ===")
	fmt.Printf("用户总数: %d (管理员: %d)\n", userCount, adminCount)
	fmt.Printf("文章: %s\n", formatStatus(articleStats))
	fmt.Printf("评论: %s\n", formatStatus(commentStats))
	fmt.Printf("标签总数: %d\n", tagCount)
	fmt.Printf("番剧总数: %d\n", animeCount)
	fmt.Printf("今日新增: 文章 %d, 评论 %d\n", todayArticles, todayComments)
}

func formatStatus(stats []statusCount) string {
	if len(stats) == 0 {
		return "无"
	}
	out := ""
	for i, s := range stats {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s %d", s.Status, s.Count)
	}
	return out
}

// showArticleStats 显示文章统计信息
func showArticleStats() {
	db, err := initializeSystem()
	if err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}

	var hot []model.Article
	db.Select("id, title, view_count, like_count").
		Where("status = ?", model.ArticleStatusPublished).
		Order("view_count DESC").
		Limit(10).
		Find(&hot)

	fmt.Println("=== 热门文章 ===")
	for _, a := range hot {
		fmt.Printf("#%-5d 阅读 %-6d 点赞 %-5d %s\n", a.ID, a.ViewCount, a.LikeCount, a.Title)
	}

	var totals struct {
		Views int64
		Likes int64
	}
	db.Model(&model.Article{}).
		Select("COALESCE(SUM(view_count), 0) AS views, COALESCE(SUM(like_count), 0) AS likes").
		Where("status = ?", model.ArticleStatusPublished).
		Scan(&totals)
	fmt.Printf("\n总阅读量: %d, 总点赞数: %d\n", totals.Views, totals.Likes)
}

// showAnimeStats 显示番剧统计
func showAnimeStats() {
	c := mustComponents()

	stats, err := c.anime.Stats(context.Background())
	if err != nil {
		fmt.Printf("获取番剧统计失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("=== 番剧统计 ===")
	fmt.Printf("总数: %d, TV: %d, 剧场版: %d, 平均评分: %.2f\n", stats.Total, stats.TVCount, stats.FilmCount, stats.AvgRating)
}

// showDependencyStatus 显示依赖连接状态
func showDependencyStatus() {
	c := mustComponents()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	dbOK := false
	if sqlDB, err := c.db.DB(); err == nil {
		dbOK = sqlDB.PingContext(ctx) == nil
		stats := sqlDB.Stats()
		fmt.Printf("数据库连接池: 打开 %d, 使用中 %d, 空闲 %d\n", stats.OpenConnections, stats.InUse, stats.Idle)
	}

	fmt.Println("=== 依赖状态 ===")
	fmt.Printf("数据库 (%s): %s\n", c.cfg.MySQL.Driver, okText(dbOK))
	fmt.Printf("Redis: %s\n", okText(c.redis != nil && c.redis.Ping(ctx).Err() == nil))
	fmt.Printf("Elasticsearch: %s\n", okText(c.search.Enabled()))
	fmt.Printf("响应缓存: %s\n", okText(c.cache.Enabled()))
}

func okText(ok bool) string {
	if ok {
		return "正常"
	}
	return "不可用"
}
