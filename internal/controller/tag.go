package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/service"
	"github.com/nsxzhou1114/blog-platform/pkg/response"
	"go.uber.org/zap"
)

// TagApi 标签API控制器
type TagApi struct {
	logger     *zap.SugaredLogger
	tagService *service.TagService
}

// NewTagApi 创建标签API控制器
func NewTagApi(tags *service.TagService, logger *zap.SugaredLogger) *TagApi {
	return &TagApi{
		logger:     logger,
		tagService: tags,
	}
}

// List 获取标签列表
func (api *TagApi) List(c *gin.Context) {
	var req dto.TagListRequest
	if !bindQuery(c, &req) {
		return
	}

	tags, err := api.tagService.List(c.Request.Context(), req.WithCount)
	if err != nil {
		handleError(c, api.logger, err, "获取标签列表失败")
		return
	}
	response.Success(c, "获取成功", tags)
}

// Create 创建标签
func (api *TagApi) Create(c *gin.Context) {
	var req dto.TagCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	tag, err := api.tagService.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, err, "创建标签失败")
		return
	}
	response.Created(c, "创建成功", tag)
}

// Update 更新标签
func (api *TagApi) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "标签")
	if !ok {
		return
	}

	var req dto.TagUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	tag, err := api.tagService.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, api.logger, err, "更新标签失败")
		return
	}
	response.Success(c, "更新成功", tag)
}

// Delete 删除标签
func (api *TagApi) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "标签")
	if !ok {
		return
	}

	if err := api.tagService.Delete(c.Request.Context(), id); err != nil {
		handleError(c, api.logger, err, "删除标签失败")
		return
	}
	response.Success(c, "删除成功", nil)
}
