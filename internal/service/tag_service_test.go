package service

import (
	"context"
	"testing"

	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagService_CreateAndDuplicate(t *testing.T) {
	db := newTestDB(t)
	svc := NewTagService(db, nil, testLog)
	ctx := context.Background()

	tag, err := svc.Create(ctx, &dto.TagCreateRequest{Name: " Go "})
	require.NoError(t, err)
	assert.Equal(t, "Go", tag.Name)
	assert.Equal(t, model.DefaultTagColor, tag.Color)

	_, err = svc.Create(ctx, &dto.TagCreateRequest{Name: "Go", Color: "#000000"})
	assert.ErrorIs(t, err, ErrTagExists)
}

func TestTagService_ListWithCount(t *testing.T) {
	db := newTestDB(t)
	alice := createUser(t, db, "alice", model.RoleUser)
	articles := NewArticleService(ArticleServiceDeps{DB: db, Log: testLog})
	svc := NewTagService(db, nil, testLog)
	ctx := context.Background()

	_, err := articles.Create(ctx, alice.ID, &dto.ArticleCreateRequest{Title: "a", Status: model.ArticleStatusPublished, Tags: []string{"go", "redis"}})
	require.NoError(t, err)
	_, err = articles.Create(ctx, alice.ID, &dto.ArticleCreateRequest{Title: "b", Status: model.ArticleStatusPublished, Tags: []string{"go"}})
	require.NoError(t, err)
	_, err = articles.Create(ctx, alice.ID, &dto.ArticleCreateRequest{Title: "c", Tags: []string{"go"}})
	require.NoError(t, err)

	tags, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "go", tags[0].Name)
	require.NotNil(t, tags[0].ArticleCount)
	assert.EqualValues(t, 2, *tags[0].ArticleCount, "drafts are not counted")
	assert.EqualValues(t, 1, *tags[1].ArticleCount)

	plain, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Nil(t, plain[0].ArticleCount)
}

func TestTagService_UpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	mr, client := newTestRedis(t)
	alice := createUser(t, db, "alice", model.RoleUser)
	rc := cache.NewResponseCache(client, nil)
	svc := NewTagService(db, rc, testLog)
	articles := NewArticleService(ArticleServiceDeps{DB: db, Log: testLog, Cache: rc, Tags: svc})
	ctx := context.Background()

	created, err := articles.Create(ctx, alice.ID, &dto.ArticleCreateRequest{Title: "a", Tags: []string{"old"}})
	require.NoError(t, err)
	tagID := created.Tags[0].ID

	_, err = svc.Create(ctx, &dto.TagCreateRequest{Name: "taken"})
	require.NoError(t, err)
	taken := "taken"
	_, err = svc.Update(ctx, tagID, &dto.TagUpdateRequest{Name: &taken})
	assert.ErrorIs(t, err, ErrTagExists)

	require.NoError(t, mr.Set("tags:/api/tags", "x"))
	require.NoError(t, mr.Set("article:1:/api/articles/1", "x"))

	name, color := "new", "#ff0000"
	updated, err := svc.Update(ctx, tagID, &dto.TagUpdateRequest{Name: &name, Color: &color})
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Name)
	assert.Equal(t, "#ff0000", updated.Color)
	assert.False(t, mr.Exists("tags:/api/tags"))
	assert.False(t, mr.Exists("article:1:/api/articles/1"))

	require.NoError(t, mr.Set("articles:/api/articles?tag_id=1", "x"))
	require.NoError(t, mr.Set("article:1:/api/articles/1", "x"))
	require.NoError(t, svc.Delete(ctx, tagID))
	assert.False(t, mr.Exists("articles:/api/articles?tag_id=1"))
	assert.False(t, mr.Exists("article:1:/api/articles/1"), "detail responses embed tag names")
	var links int64
	require.NoError(t, db.Model(&model.ArticleTag{}).Where("tag_id = ?", tagID).Count(&links).Error)
	assert.Zero(t, links)

	_, err = svc.GetByID(ctx, tagID)
	assert.ErrorIs(t, err, ErrTagNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, tagID), ErrTagNotFound)
}
