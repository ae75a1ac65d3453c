package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// databaseCmd 数据库管理命令
var databaseCmd = &cobra.Command{
	Use:   "db",
	Short: "数据库管理命令",
	Long:  `数据库管理相关的命令，包括建表、同步索引、重建布隆过滤器等`,
}

// migrateCmd 建表与迁移
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "初始化数据库表",
	Long:  `根据模型自动创建或更新数据库表结构`,
	Run: func(cmd *cobra.Command, args []string) {
		migrate()
	},
}

// syncESCmd 同步ES数据命令
// 示例：./blog-platform db sync-es
var syncESCmd = &cobra.Command{
	Use:   "sync-es",
	Short: "同步文章到Elasticsearch",
	Long:  `将数据库中全部未删除的文章批量写入Elasticsearch索引`,
	Run: func(cmd *cobra.Command, args []string) {
		syncES()
	},
}

// rebuildBloomCmd 重建布隆过滤器
var rebuildBloomCmd = &cobra.Command{
	Use:   "rebuild-bloom",
	Short: "重建文章布隆过滤器",
	Long:  `从数据库读取全部文章ID重建布隆过滤器并保存到Redis`,
	Run: func(cmd *cobra.Command, args []string) {
		rebuildBloom()
	},
}

// flushViewsCmd 立即落库阅读量
var flushViewsCmd = &cobra.Command{
	Use:   "flush-views",
	Short: "阅读量落库",
	Long:  `把Redis中缓冲的阅读量立即写入数据库`,
	Run: func(cmd *cobra.Command, args []string) {
		flushViews()
	},
}

func init() {
	databaseCmd.AddCommand(migrateCmd)
	databaseCmd.AddCommand(syncESCmd)
	databaseCmd.AddCommand(rebuildBloomCmd)
	databaseCmd.AddCommand(flushViewsCmd)

	rootCmd.AddCommand(databaseCmd)
}

// mustComponents 初始化并组装服务，失败时退出
func mustComponents() *components {
	db, err := initializeSystem()
	if err != nil {
		fmt.Printf("系统初始化失败: %v\n", err)
		os.Exit(1)
	}
	c, err := buildComponents(db)
	if err != nil {
		fmt.Printf("服务组装失败: %v\n", err)
		os.Exit(1)
	}
	return c
}

// migrate 建表，initializeSystem 已执行自动迁移
func migrate() {
	db, err := initializeSystem()
	if err != nil {
		fmt.Printf("数据库迁移失败: %v\n", err)
		os.Exit(1)
	}

	tables, err := db.Migrator().GetTables()
	if err != nil {
		fmt.Printf("读取数据表失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("数据库表已就绪: %v\n", tables)
}

// syncES 批量同步文章索引
func syncES() {
	c := mustComponents()
	if !c.search.Enabled() {
		fmt.Println("Elasticsearch 未启用或不可用，请检查 elasticsearch 配置")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	n, err := c.search.SyncAll(ctx)
	if err != nil {
		fmt.Printf("同步失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("同步完成，共索引 %d 篇文章，耗时 %s\n", n, time.Since(start).Round(time.Millisecond))
}

// rebuildBloom 重建布隆过滤器
func rebuildBloom() {
	c := mustComponents()
	if c.redis == nil {
		fmt.Println("Redis 未启用，布隆过滤器仅在服务进程内使用，无需重建")
		return
	}

	ctx := context.Background()
	n, err := c.articles.WarmBloom(ctx)
	if err != nil {
		fmt.Printf("重建失败: %v\n", err)
		os.Exit(1)
	}
	if err := c.articles.SaveBloom(ctx); err != nil {
		fmt.Printf("保存失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("布隆过滤器已重建，包含 %d 篇文章\n", n)
}

// flushViews 阅读量落库
func flushViews() {
	c := mustComponents()
	n, err := c.articles.FlushViews(context.Background())
	if err != nil {
		fmt.Printf("落库失败: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("已更新 %d 篇文章的阅读量\n", n)
}
