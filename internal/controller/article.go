package controller

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/middleware"
	"github.com/nsxzhou1114/blog-platform/internal/service"
	"github.com/nsxzhou1114/blog-platform/pkg/response"
	"go.uber.org/zap"
)

// ArticleApi 文章控制器
type ArticleApi struct {
	logger         *zap.SugaredLogger
	articleService *service.ArticleService
	exportService  *service.ExportService
}

// NewArticleApi 创建文章控制器实例
func NewArticleApi(articles *service.ArticleService, exports *service.ExportService, logger *zap.SugaredLogger) *ArticleApi {
	return &ArticleApi{
		logger:         logger,
		articleService: articles,
		exportService:  exports,
	}
}

// List 获取文章列表
func (api *ArticleApi) List(c *gin.Context) {
	var req dto.ArticleQueryRequest
	if !bindQuery(c, &req) {
		return
	}

	resp, cacheable, err := api.articleService.List(c.Request.Context(), currentViewer(c), &req)
	if err != nil {
		handleError(c, api.logger, err, "获取文章列表失败")
		return
	}
	if !cacheable {
		middleware.SkipStore(c)
	}
	response.Success(c, "获取成功", resp)
}

// GetDetail 获取文章详情
func (api *ArticleApi) GetDetail(c *gin.Context) {
	id, ok := parseID(c, "id", "文章")
	if !ok {
		return
	}

	article, cacheable, err := api.articleService.Get(c.Request.Context(), currentViewer(c), id)
	if err != nil {
		handleError(c, api.logger, err, "获取文章详情失败")
		return
	}
	if !cacheable {
		middleware.SkipStore(c)
	}
	response.Success(c, "获取成功", article)
}

// Create 创建文章
func (api *ArticleApi) Create(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.ArticleCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	article, err := api.articleService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, api.logger, err, "创建文章失败")
		return
	}
	response.Created(c, "创建成功", article)
}

// Update 更新文章
func (api *ArticleApi) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "文章")
	if !ok {
		return
	}

	var req dto.ArticleUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	article, err := api.articleService.Update(c.Request.Context(), currentViewer(c), id, &req)
	if err != nil {
		handleError(c, api.logger, err, "更新文章失败")
		return
	}
	response.Success(c, "更新成功", article)
}

// Delete 删除文章，hard=true 时物理删除
func (api *ArticleApi) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "文章")
	if !ok {
		return
	}

	hard := c.Query("hard") == "true"
	if err := api.articleService.Delete(c.Request.Context(), currentViewer(c), id, hard); err != nil {
		handleError(c, api.logger, err, "删除文章失败")
		return
	}
	response.Success(c, "删除成功", nil)
}

// Like 点赞文章
func (api *ArticleApi) Like(c *gin.Context) {
	id, ok := parseID(c, "id", "文章")
	if !ok {
		return
	}

	count, err := api.articleService.Like(c.Request.Context(), id)
	if err != nil {
		handleError(c, api.logger, err, "点赞失败")
		return
	}
	response.Success(c, "点赞成功", dto.ArticleLikeResponse{LikeCount: count})
}

// Export 导出文章为附件
func (api *ArticleApi) Export(c *gin.Context) {
	id, ok := parseID(c, "id", "文章")
	if !ok {
		return
	}

	var req dto.ArticleExportRequest
	if !bindQuery(c, &req) {
		return
	}
	if req.Format == "" {
		req.Format = "markdown"
	}

	result, err := api.exportService.Export(c.Request.Context(), currentViewer(c), id, req.Format)
	if err != nil {
		handleError(c, api.logger, err, "导出文章失败")
		return
	}

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.Filename}))
	c.Data(http.StatusOK, result.ContentType, result.Body)
}
