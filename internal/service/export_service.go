package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/pkg/export"
)

// ExportResult 导出文件
type ExportResult struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService 文章导出
type ExportService struct {
	articles *ArticleService
	exporter *export.Exporter
}

// NewExportService 创建导出服务
func NewExportService(articles *ArticleService, exporter *export.Exporter) *ExportService {
	return &ExportService{articles: articles, exporter: exporter}
}

// Export 按格式导出当前用户可见的文章
func (s *ExportService) Export(ctx context.Context, viewer Viewer, id uint, format string) (*ExportResult, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParam, err)
	}
	article, err := s.articles.loadVisible(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.exporter.Export(&buf, toExportArticle(article), f); err != nil {
		return nil, fmt.Errorf("导出文章失败: %w", err)
	}
	return &ExportResult{
		Filename:    export.Filename(article.Title, f),
		ContentType: f.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}

func toExportArticle(a *model.Article) *export.Article {
	tags := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		tags = append(tags, t.Name)
	}
	return &export.Article{
		Title:       a.Title,
		AuthorName:  a.Author.Username,
		Content:     a.Content,
		CoverImage:  a.CoverImage,
		Tags:        tags,
		ViewCount:   a.ViewCount,
		LikeCount:   a.LikeCount,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
	}
}
