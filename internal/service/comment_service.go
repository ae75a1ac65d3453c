package service

import (
	"context"
	"errors"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/pkg/iplocation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CommentService 评论服务，评论为两级结构
type CommentService struct {
	db              *gorm.DB
	sensitive       *SensitiveService
	locator         *iplocation.Locator
	policy          *bluemonday.Policy
	requireApproval bool
	logger          *zap.SugaredLogger
}

// NewCommentService 创建评论服务
func NewCommentService(db *gorm.DB, sensitive *SensitiveService, locator *iplocation.Locator, requireApproval bool, logger *zap.SugaredLogger) *CommentService {
	if sensitive == nil {
		sensitive = NewSensitiveService(logger)
	}
	return &CommentService{
		db:              db,
		sensitive:       sensitive,
		locator:         locator,
		policy:          bluemonday.StrictPolicy(),
		requireApproval: requireApproval,
		logger:          logger,
	}
}

// ListByArticle 获取文章的已通过评论，顶层按时间倒序，回复按时间正序
func (s *CommentService) ListByArticle(ctx context.Context, articleID uint) ([]dto.CommentResponse, error) {
	if _, err := s.publishedArticle(ctx, articleID); err != nil {
		return nil, err
	}

	var comments []model.Comment
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", model.CommentStatusApproved).Order("created_at ASC, id ASC")
		}).
		Preload("Replies.User").
		Where("article_id = ? AND parent_id IS NULL AND status = ?", articleID, model.CommentStatusApproved).
		Order("created_at DESC, id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}

	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, toCommentResponse(&comments[i]))
	}
	return items, nil
}

// Create 发表评论，回复的回复挂到其顶层评论下
func (s *CommentService) Create(ctx context.Context, userID, articleID uint, req *dto.CommentCreateRequest, ip string) (*dto.CommentResponse, error) {
	if _, err := s.publishedArticle(ctx, articleID); err != nil {
		return nil, err
	}

	// 去除标签后还原实体，评论按纯文本存储
	content := strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(req.Content)))
	if content == "" {
		return nil, ErrCommentEmpty
	}
	content = s.sensitive.FilterSensitiveWords(content)

	comment := &model.Comment{
		Content:   content,
		ArticleID: articleID,
		UserID:    userID,
		Status:    model.CommentStatusApproved,
		IP:        ip,
		Location:  s.locator.Lookup(ip),
	}
	if s.requireApproval {
		comment.Status = model.CommentStatusPending
	}

	if req.ParentID != nil && *req.ParentID > 0 {
		var parent model.Comment
		err := s.db.WithContext(ctx).
			Where("id = ? AND article_id = ? AND status <> ?", *req.ParentID, articleID, model.CommentStatusDeleted).
			First(&parent).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParentCommentNotFound
			}
			return nil, err
		}
		rootID := parent.ID
		if parent.ParentID != nil {
			rootID = *parent.ParentID
		}
		comment.ParentID = &rootID
	}

	if err := s.db.WithContext(ctx).Omit("User", "Replies").Create(comment).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Preload("User").First(comment, comment.ID).Error; err != nil {
		return nil, err
	}

	resp := toCommentResponse(comment)
	return &resp, nil
}

// ListPending 待审核评论
func (s *CommentService) ListPending(ctx context.Context, req *dto.CommentQueryRequest) (*dto.CommentListResponse, error) {
	page, size := req.Page, req.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}

	query := s.db.WithContext(ctx).Model(&model.Comment{}).
		Where("status = ?", model.CommentStatusPending).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var comments []model.Comment
	if err := query.Preload("User").Order("created_at ASC").
		Offset((page - 1) * size).Limit(size).Find(&comments).Error; err != nil {
		return nil, err
	}

	list := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		list = append(list, toCommentResponse(&comments[i]))
	}
	return &dto.CommentListResponse{List: list, Total: total, Page: page, PageSize: size}, nil
}

// Approve 审核通过
func (s *CommentService) Approve(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Model(&model.Comment{}).
		Where("id = ? AND status <> ?", id, model.CommentStatusDeleted).
		Update("status", model.CommentStatusApproved)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}

// Delete 软删除评论，评论作者、文章作者或管理员可操作
func (s *CommentService) Delete(ctx context.Context, viewer Viewer, id uint) error {
	var comment model.Comment
	err := s.db.WithContext(ctx).Where("id = ? AND status <> ?", id, model.CommentStatusDeleted).First(&comment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	if !viewer.CanManage(comment.UserID) {
		var article model.Article
		if err := s.db.WithContext(ctx).Select("id", "author_id").First(&article, comment.ArticleID).Error; err != nil ||
			article.AuthorID != viewer.UserID {
			return ErrPermissionDenied
		}
	}

	return s.db.WithContext(ctx).Model(&comment).Update("status", model.CommentStatusDeleted).Error
}

func (s *CommentService) publishedArticle(ctx context.Context, articleID uint) (*model.Article, error) {
	var article model.Article
	err := s.db.WithContext(ctx).Select("id", "author_id", "status").
		Where("id = ? AND status = ?", articleID, model.ArticleStatusPublished).
		First(&article).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return &article, nil
}

func toCommentResponse(c *model.Comment) dto.CommentResponse {
	resp := dto.CommentResponse{
		ID:         c.ID,
		Content:    c.Content,
		ArticleID:  c.ArticleID,
		UserID:     c.UserID,
		UserName:   c.User.Username,
		UserAvatar: c.User.Avatar,
		ParentID:   c.ParentID,
		Status:     c.Status,
		Location:   c.Location,
		CreatedAt:  c.CreatedAt,
	}
	if len(c.Replies) > 0 {
		resp.Replies = make([]dto.CommentResponse, 0, len(c.Replies))
		for i := range c.Replies {
			resp.Replies = append(resp.Replies, toCommentResponse(&c.Replies[i]))
		}
	}
	return resp
}
