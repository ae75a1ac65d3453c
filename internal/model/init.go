package model

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"gorm.io/gorm"
)

// ESModel 定义支持Elasticsearch操作的模型接口
type ESModel interface {
	ESIndexName() string
	ESMapping() string
}

// 需要自动迁移的模型列表
var models = []interface{}{
	&User{},
	&Article{},
	&Tag{},
	&ArticleTag{},
	&Comment{},
	&Anime{},
}

// InitTables 初始化数据库表
func InitTables(db *gorm.DB) error {
	if err := db.SetupJoinTable(&Article{}, "Tags", &ArticleTag{}); err != nil {
		return fmt.Errorf("设置文章标签关联表失败: %w", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("自动迁移数据库表失败: %w", err)
	}
	return nil
}

// InitESIndex 初始化Elasticsearch索引，已存在时跳过
func InitESIndex(ctx context.Context, client *elasticsearch.Client, m ESModel) error {
	indexName := m.ESIndexName()
	resp, err := client.Indices.Exists([]string{indexName}, client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("检查索引 %s 是否存在时出错: %w", indexName, err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		return nil
	}

	createResp, err := client.Indices.Create(
		indexName,
		client.Indices.Create.WithContext(ctx),
		client.Indices.Create.WithBody(strings.NewReader(m.ESMapping())),
	)
	if err != nil {
		return fmt.Errorf("创建索引 %s 失败: %w", indexName, err)
	}
	defer createResp.Body.Close()
	if createResp.IsError() {
		return fmt.Errorf("创建索引 %s 返回错误: %s", indexName, createResp.String())
	}
	return nil
}
