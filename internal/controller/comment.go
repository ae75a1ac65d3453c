package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/middleware"
	"github.com/nsxzhou1114/blog-platform/internal/service"
	"github.com/nsxzhou1114/blog-platform/pkg/response"
	"go.uber.org/zap"
)

// CommentApi 评论控制器
type CommentApi struct {
	logger         *zap.SugaredLogger
	commentService *service.CommentService
}

// NewCommentApi 创建评论控制器
func NewCommentApi(comments *service.CommentService, logger *zap.SugaredLogger) *CommentApi {
	return &CommentApi{
		logger:         logger,
		commentService: comments,
	}
}

// ListByArticle 获取文章的评论树
func (api *CommentApi) ListByArticle(c *gin.Context) {
	articleID, ok := parseID(c, "articleId", "文章")
	if !ok {
		return
	}

	comments, err := api.commentService.ListByArticle(c.Request.Context(), articleID)
	if err != nil {
		handleError(c, api.logger, err, "获取评论失败")
		return
	}
	response.Success(c, "获取成功", comments)
}

// Create 发表评论或回复
func (api *CommentApi) Create(c *gin.Context) {
	articleID, ok := parseID(c, "articleId", "文章")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(c)

	var req dto.CommentCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := api.commentService.Create(c.Request.Context(), userID, articleID, &req, c.ClientIP())
	if err != nil {
		handleError(c, api.logger, err, "发表评论失败")
		return
	}
	response.Created(c, "评论成功", comment)
}

// Pending 待审核评论（管理员）
func (api *CommentApi) Pending(c *gin.Context) {
	var req dto.CommentQueryRequest
	if !bindQuery(c, &req) {
		return
	}

	result, err := api.commentService.ListPending(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, err, "获取待审核评论失败")
		return
	}
	response.SuccessPage(c, "获取成功", result.List, result.Page, result.PageSize, result.Total)
}

// Approve 审核通过（管理员）
func (api *CommentApi) Approve(c *gin.Context) {
	id, ok := parseID(c, "id", "评论")
	if !ok {
		return
	}

	if err := api.commentService.Approve(c.Request.Context(), id); err != nil {
		handleError(c, api.logger, err, "审核评论失败")
		return
	}
	response.Success(c, "审核通过", nil)
}

// Delete 删除评论，评论者、文章作者或管理员可操作
func (api *CommentApi) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "评论")
	if !ok {
		return
	}

	if err := api.commentService.Delete(c.Request.Context(), currentViewer(c), id); err != nil {
		handleError(c, api.logger, err, "删除评论失败")
		return
	}
	response.Success(c, "删除成功", nil)
}
