package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/nsxzhou1114/blog-platform/internal/config"
	"github.com/nsxzhou1114/blog-platform/internal/logger"
	"go.uber.org/zap"
)

// ES 全局Elasticsearch客户端实例，未启用时为 nil
var (
	ES    *elasticsearch.Client
	esOne sync.Once
)

// InitElasticsearch 初始化Elasticsearch连接
func InitElasticsearch(cfg *config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	esConfig := elasticsearch.Config{
		Addresses: cfg.URLs,
	}
	if cfg.Username != "" && cfg.Password != "" {
		esConfig.Username = cfg.Username
		esConfig.Password = cfg.Password
	}

	client, err := elasticsearch.NewClient(esConfig)
	if err != nil {
		return nil, fmt.Errorf("连接elasticsearch失败: %w", err)
	}

	info, err := client.Info(client.Info.WithContext(context.Background()))
	if err != nil {
		return nil, fmt.Errorf("elasticsearch健康检查失败: %w", err)
	}
	defer info.Body.Close()
	if info.IsError() {
		return nil, fmt.Errorf("elasticsearch健康检查失败: %s", info.String())
	}

	logger.Info("elasticsearch连接成功", zap.Strings("addresses", cfg.URLs))
	return client, nil
}

// GetES 获取Elasticsearch客户端实例，未启用或连接失败时返回 nil，搜索退回数据库
func GetES() *elasticsearch.Client {
	esOne.Do(func() {
		cfg := config.GetConfig().Elasticsearch
		if !cfg.Enabled {
			return
		}
		client, err := InitElasticsearch(&cfg)
		if err != nil {
			logger.Warn("elasticsearch不可用，搜索使用数据库", zap.Error(err))
			return
		}
		ES = client
	})
	return ES
}
