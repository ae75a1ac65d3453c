package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/service"
	"github.com/nsxzhou1114/blog-platform/pkg/response"
	"go.uber.org/zap"
)

// AnimeApi 番剧控制器
type AnimeApi struct {
	logger       *zap.SugaredLogger
	animeService *service.AnimeService
}

func NewAnimeApi(anime *service.AnimeService, logger *zap.SugaredLogger) *AnimeApi {
	return &AnimeApi{
		logger:       logger,
		animeService: anime,
	}
}

// List 番剧列表
func (api *AnimeApi) List(c *gin.Context) {
	var req dto.AnimeQueryRequest
	if !bindQuery(c, &req) {
		return
	}

	result, err := api.animeService.List(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, err, "获取番剧列表失败")
		return
	}
	response.Success(c, "获取成功", result)
}

// Stats 番剧统计
func (api *AnimeApi) Stats(c *gin.Context) {
	stats, err := api.animeService.Stats(c.Request.Context())
	if err != nil {
		handleError(c, api.logger, err, "获取番剧统计失败")
		return
	}
	response.Success(c, "获取成功", stats)
}

// GetDetail 番剧详情
func (api *AnimeApi) GetDetail(c *gin.Context) {
	id, ok := parseID(c, "id", "番剧")
	if !ok {
		return
	}

	anime, err := api.animeService.Get(c.Request.Context(), id)
	if err != nil {
		handleError(c, api.logger, err, "获取番剧详情失败")
		return
	}
	response.Success(c, "获取成功", anime)
}

// Crawl 从 Bangumi 页面抓取番剧信息，不落库
func (api *AnimeApi) Crawl(c *gin.Context) {
	var req dto.AnimeCrawlRequest
	if !bindJSON(c, &req) {
		return
	}

	anime, err := api.animeService.Crawl(c.Request.Context(), req.URL)
	if err != nil {
		handleError(c, api.logger, err, "抓取番剧失败")
		return
	}
	response.Success(c, "抓取成功", anime)
}

// Create 新增番剧
func (api *AnimeApi) Create(c *gin.Context) {
	var req dto.AnimeRequest
	if !bindJSON(c, &req) {
		return
	}

	anime, err := api.animeService.Create(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, err, "新增番剧失败")
		return
	}
	response.Created(c, "新增成功", anime)
}

// Update 更新番剧
func (api *AnimeApi) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "番剧")
	if !ok {
		return
	}

	var req dto.AnimeRequest
	if !bindJSON(c, &req) {
		return
	}

	anime, err := api.animeService.Update(c.Request.Context(), id, &req)
	if err != nil {
		handleError(c, api.logger, err, "更新番剧失败")
		return
	}
	response.Success(c, "更新成功", anime)
}

// Delete 删除番剧
func (api *AnimeApi) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "番剧")
	if !ok {
		return
	}

	if err := api.animeService.Delete(c.Request.Context(), id); err != nil {
		handleError(c, api.logger, err, "删除番剧失败")
		return
	}
	response.Success(c, "删除成功", nil)
}
