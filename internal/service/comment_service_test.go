package service

import (
	"context"
	"testing"

	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/pkg/iplocation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommentService(t *testing.T, requireApproval bool) (*CommentService, *model.User, *model.Article) {
	t.Helper()

	db := newTestDB(t)
	author := createUser(t, db, "author", model.RoleUser)
	article := createArticle(t, db, author.ID, "公开", model.ArticleStatusPublished)
	sensitive := NewSensitiveService(testLog, "坏词")
	return NewCommentService(db, sensitive, nil, requireApproval, testLog), author, article
}

func TestCommentService_CreateSanitizesAndMasks(t *testing.T) {
	svc, _, article := newCommentService(t, false)
	reader := createUser(t, svc.db, "reader", model.RoleUser)

	resp, err := svc.Create(context.Background(), reader.ID, article.ID,
		&dto.CommentCreateRequest{Content: "<script>alert(1)</script><b>这是坏词</b>"}, "127.0.0.1")
	require.NoError(t, err)

	assert.Equal(t, "这是**", resp.Content)
	assert.Equal(t, model.CommentStatusApproved, resp.Status)
	assert.Equal(t, "reader", resp.UserName)
	assert.Equal(t, iplocation.LocationIntranet, resp.Location)
}

func TestCommentService_CreateKeepsPlainTextSymbols(t *testing.T) {
	svc, _, article := newCommentService(t, false)
	reader := createUser(t, svc.db, "reader", model.RoleUser)

	resp, err := svc.Create(context.Background(), reader.ID, article.ID,
		&dto.CommentCreateRequest{Content: `a & b < c 'x' "y" <i>斜体</i>`}, "")
	require.NoError(t, err)
	assert.Equal(t, `a & b < c 'x' "y" 斜体`, resp.Content)

	var stored model.Comment
	require.NoError(t, svc.db.First(&stored, resp.ID).Error)
	assert.Equal(t, resp.Content, stored.Content)
}

func TestCommentService_CreateRejectsEmptyAndUnpublished(t *testing.T) {
	svc, author, article := newCommentService(t, false)
	ctx := context.Background()

	_, err := svc.Create(ctx, author.ID, article.ID, &dto.CommentCreateRequest{Content: "<img src=x>"}, "")
	assert.ErrorIs(t, err, ErrCommentEmpty)

	draft := createArticle(t, svc.db, author.ID, "草稿", model.ArticleStatusDraft)
	_, err = svc.Create(ctx, author.ID, draft.ID, &dto.CommentCreateRequest{Content: "hi"}, "")
	assert.ErrorIs(t, err, ErrArticleNotFound)

	missing := uint(999)
	_, err = svc.Create(ctx, author.ID, article.ID, &dto.CommentCreateRequest{Content: "hi", ParentID: &missing}, "")
	assert.ErrorIs(t, err, ErrParentCommentNotFound)
}

func TestCommentService_RepliesAttachToRoot(t *testing.T) {
	svc, author, article := newCommentService(t, false)
	ctx := context.Background()

	root, err := svc.Create(ctx, author.ID, article.ID, &dto.CommentCreateRequest{Content: "root"}, "")
	require.NoError(t, err)
	reply, err := svc.Create(ctx, author.ID, article.ID, &dto.CommentCreateRequest{Content: "reply", ParentID: &root.ID}, "")
	require.NoError(t, err)
	nested, err := svc.Create(ctx, author.ID, article.ID, &dto.CommentCreateRequest{Content: "nested", ParentID: &reply.ID}, "")
	require.NoError(t, err)

	require.NotNil(t, nested.ParentID)
	assert.Equal(t, root.ID, *nested.ParentID)

	list, err := svc.ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Replies, 2)
	assert.Equal(t, "reply", list[0].Replies[0].Content)
	assert.Equal(t, "nested", list[0].Replies[1].Content)
}

func TestCommentService_ApprovalFlow(t *testing.T) {
	svc, author, article := newCommentService(t, true)
	ctx := context.Background()

	created, err := svc.Create(ctx, author.ID, article.ID, &dto.CommentCreateRequest{Content: "待审"}, "")
	require.NoError(t, err)
	assert.Equal(t, model.CommentStatusPending, created.Status)

	list, err := svc.ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	assert.Empty(t, list)

	pending, err := svc.ListPending(ctx, &dto.CommentQueryRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, pending.Total)

	require.NoError(t, svc.Approve(ctx, created.ID))
	list, err = svc.ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, svc.Approve(ctx, 999), ErrCommentNotFound)
}

func TestCommentService_DeletePermissions(t *testing.T) {
	svc, author, article := newCommentService(t, false)
	ctx := context.Background()
	reader := createUser(t, svc.db, "reader", model.RoleUser)
	stranger := createUser(t, svc.db, "stranger", model.RoleUser)

	first, err := svc.Create(ctx, reader.ID, article.ID, &dto.CommentCreateRequest{Content: "one"}, "")
	require.NoError(t, err)
	second, err := svc.Create(ctx, reader.ID, article.ID, &dto.CommentCreateRequest{Content: "two"}, "")
	require.NoError(t, err)

	err = svc.Delete(ctx, Viewer{UserID: stranger.ID, Role: model.RoleUser}, first.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, svc.Delete(ctx, Viewer{UserID: reader.ID, Role: model.RoleUser}, first.ID))
	require.NoError(t, svc.Delete(ctx, Viewer{UserID: author.ID, Role: model.RoleUser}, second.ID))

	assert.ErrorIs(t, svc.Delete(ctx, Viewer{UserID: reader.ID, Role: model.RoleUser}, first.ID), ErrCommentNotFound)

	list, err := svc.ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
