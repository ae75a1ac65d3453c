package service

import (
	"context"
	"strings"
	"testing"

	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/pkg/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportService_Export(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, "alice", model.RoleUser)
	articles := NewArticleService(ArticleServiceDeps{DB: db, Log: testLog})
	svc := NewExportService(articles, export.New(export.Options{}))
	ctx := context.Background()

	created, err := articles.Create(ctx, alice.ID, &dto.ArticleCreateRequest{
		Title:   "Go/并发",
		Content: "## 小节\n\n正文 ![图](http://x/y.png)",
		Status:  model.ArticleStatusPublished,
		Tags:    []string{"go"},
	})
	require.NoError(t, err)

	result, err := svc.Export(ctx, Viewer{}, created.ID, "md")
	require.NoError(t, err)
	assert.Equal(t, "Go_并发.md", result.Filename)
	assert.Equal(t, "text/markdown; charset=utf-8", result.ContentType)
	body := string(result.Body)
	assert.True(t, strings.HasPrefix(body, "# Go/并发\n"))
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "## 小节")
	assert.NotContains(t, body, "y.png")

	pdf, err := svc.Export(ctx, Viewer{}, created.ID, "pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf.Body), "%PDF-"))

	_, err = svc.Export(ctx, Viewer{}, created.ID, "docx")
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestExportService_HidesDrafts(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, "alice", model.RoleUser)
	articles := NewArticleService(ArticleServiceDeps{DB: db, Log: testLog})
	svc := NewExportService(articles, export.New(export.Options{}))

	draft := createArticle(t, db, alice.ID, "草稿", model.ArticleStatusDraft)
	_, err := svc.Export(context.Background(), Viewer{}, draft.ID, "text")
	assert.ErrorIs(t, err, ErrArticleNotFound)

	_, err = svc.Export(context.Background(), Viewer{UserID: alice.ID, Role: model.RoleUser}, draft.ID, "text")
	assert.NoError(t, err)
}
