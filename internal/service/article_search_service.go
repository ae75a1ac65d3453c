package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SearchQuery 全文检索条件
type SearchQuery struct {
	Keyword  string
	Status   string
	AuthorID uint
	SortBy   string
	Order    string
	From     int
	Size     int
}

// ArticleSearchService 基于Elasticsearch的文章检索，客户端为空时关闭
type ArticleSearchService struct {
	db       *gorm.DB
	esClient *elasticsearch.Client
	index    string
	log      *zap.SugaredLogger
}

// NewArticleSearchService 创建检索服务
func NewArticleSearchService(db *gorm.DB, esClient *elasticsearch.Client, index string, log *zap.SugaredLogger) *ArticleSearchService {
	if index == "" {
		index = model.ESArticle{}.ESIndexName()
	}
	return &ArticleSearchService{db: db, esClient: esClient, index: index, log: log}
}

// Enabled 检索是否可用
func (s *ArticleSearchService) Enabled() bool {
	return s != nil && s.esClient != nil
}

// EnsureIndex 创建索引，已存在时跳过
func (s *ArticleSearchService) EnsureIndex(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return model.InitESIndex(ctx, s.esClient, model.NewESArticleIndex(s.index))
}

// IndexArticle 写入或覆盖文章文档，失败只记录日志
func (s *ArticleSearchService) IndexArticle(ctx context.Context, article *model.Article) {
	if !s.Enabled() {
		return
	}
	doc := article.ToSearchDocument()
	body, err := json.Marshal(doc)
	if err != nil {
		s.log.Warnf("序列化文章 %d 失败: %v", article.ID, err)
		return
	}

	res, err := s.esClient.Index(
		s.index,
		bytes.NewReader(body),
		s.esClient.Index.WithContext(ctx),
		s.esClient.Index.WithDocumentID(doc.ID),
	)
	if err != nil {
		s.log.Warnf("索引文章 %d 失败: %v", article.ID, err)
		return
	}
	defer res.Body.Close()
	if res.IsError() {
		s.log.Warnf("索引文章 %d 返回错误: %s", article.ID, res.String())
	}
}

// DeleteArticle 删除文章文档，失败只记录日志
func (s *ArticleSearchService) DeleteArticle(ctx context.Context, articleID uint) {
	if !s.Enabled() {
		return
	}
	res, err := s.esClient.Delete(s.index, docID(articleID), s.esClient.Delete.WithContext(ctx))
	if err != nil {
		s.log.Warnf("从ES删除文章 %d 失败: %v", articleID, err)
		return
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		s.log.Warnf("从ES删除文章 %d 返回错误: %s", articleID, res.String())
	}
}

// Search 按关键词检索，返回按排序规则排列的文章ID与总数
func (s *ArticleSearchService) Search(ctx context.Context, q SearchQuery) ([]uint, int64, error) {
	if !s.Enabled() {
		return nil, 0, fmt.Errorf("elasticsearch 未启用")
	}

	filters := []map[string]interface{}{}
	if q.Status != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"status": q.Status}})
	}
	if q.AuthorID != 0 {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"author_id": q.AuthorID}})
	}

	query := map[string]interface{}{
		"from":    q.From,
		"size":    q.Size,
		"_source": []string{"article_id"},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  q.Keyword,
						"fields": []string{"title^3", "summary^2", "content", "tags"},
					},
				},
				"filter": filters,
			},
		},
		"sort": buildESSort(q.SortBy, q.Order),
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, 0, err
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(s.index),
		s.esClient.Search.WithBody(&buf),
		s.esClient.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, 0, fmt.Errorf("检索返回错误: %s", res.String())
	}

	var result struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source struct {
					ArticleID uint `json:"article_id"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		return nil, 0, fmt.Errorf("解析检索结果失败: %w", err)
	}

	ids := make([]uint, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		ids = append(ids, hit.Source.ArticleID)
	}
	return ids, result.Hits.Total.Value, nil
}

// SyncAll 批量重建全部文章的索引
func (s *ArticleSearchService) SyncAll(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, fmt.Errorf("elasticsearch 未启用")
	}
	if err := s.EnsureIndex(ctx); err != nil {
		return 0, err
	}

	indexer, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client: s.esClient,
		Index:  s.index,
	})
	if err != nil {
		return 0, fmt.Errorf("创建批量索引器失败: %w", err)
	}

	var articles []model.Article
	count := 0
	err = s.db.WithContext(ctx).Preload("Author").Preload("Tags").
		Where("status <> ?", model.ArticleStatusDeleted).
		FindInBatches(&articles, 200, func(tx *gorm.DB, batch int) error {
			for i := range articles {
				doc := articles[i].ToSearchDocument()
				body, err := json.Marshal(doc)
				if err != nil {
					return err
				}
				if err := indexer.Add(ctx, esutil.BulkIndexerItem{
					Action:     "index",
					DocumentID: doc.ID,
					Body:       bytes.NewReader(body),
					OnFailure: func(_ context.Context, item esutil.BulkIndexerItem, _ esutil.BulkIndexerResponseItem, err error) {
						s.log.Warnf("批量索引文档 %s 失败: %v", item.DocumentID, err)
					},
				}); err != nil {
					return err
				}
				count++
			}
			return nil
		}).Error
	if closeErr := indexer.Close(ctx); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, err
	}

	stats := indexer.Stats()
	s.log.Infof("同步文章到ES完成: 提交 %d, 成功 %d, 失败 %d", count, stats.NumFlushed, stats.NumFailed)
	return int(stats.NumFlushed), nil
}

func docID(articleID uint) string {
	return "article_" + strconv.FormatUint(uint64(articleID), 10)
}

// buildESSort 排序规则，标题按 keyword 子字段排序
func buildESSort(sortBy, order string) []map[string]interface{} {
	if order != "asc" {
		order = "desc"
	}
	field := sortBy
	switch sortBy {
	case "":
		field = "published_at"
	case "title":
		field = "title.keyword"
	}
	return []map[string]interface{}{
		{field: map[string]interface{}{"order": order, "unmapped_type": "keyword"}},
		{"_score": map[string]interface{}{"order": "desc"}},
	}
}
