package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/middleware"
	"github.com/nsxzhou1114/blog-platform/internal/service"
	"github.com/nsxzhou1114/blog-platform/pkg/auth"
	"github.com/nsxzhou1114/blog-platform/pkg/response"
	"github.com/nsxzhou1114/blog-platform/pkg/validate"
	"go.uber.org/zap"
)

// currentViewer 当前访问者，未登录时为匿名
func currentViewer(c *gin.Context) service.Viewer {
	id, _ := middleware.GetUserID(c)
	return service.Viewer{UserID: id, Role: middleware.GetUserRole(c)}
}

// parseID 解析路径中的ID参数，失败时写入400
func parseID(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "无效的"+label+"ID", err)
		return 0, false
	}
	return uint(id), true
}

// bindJSON 绑定请求体，失败时写入400
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		response.BadRequest(c, validate.Message(err), err)
		return false
	}
	return true
}

// bindQuery 绑定查询参数，失败时写入400
func bindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		response.BadRequest(c, validate.Message(err), err)
		return false
	}
	return true
}

var errorTable = response.NewErrorTable(
	response.On(http.StatusBadRequest,
		service.ErrInvalidParam, service.ErrInvalidTagIDs, service.ErrCommentEmpty,
		service.ErrParentCommentNotFound, service.ErrInvalidAnimeURL, service.ErrCaptchaInvalid,
		service.ErrUnsupportedFileType, service.ErrInvalidFilename),
	response.On(http.StatusUnauthorized,
		service.ErrInvalidCredentials, auth.ErrTokenInvalid, auth.ErrTokenExpired,
		auth.ErrTokenRevoked, auth.ErrTokenType),
	response.On(http.StatusForbidden, service.ErrPermissionDenied),
	response.On(http.StatusNotFound,
		service.ErrUserNotFound, service.ErrArticleNotFound, service.ErrTagNotFound,
		service.ErrCommentNotFound, service.ErrAnimeNotFound, service.ErrFileNotFound),
	response.On(http.StatusConflict,
		service.ErrUsernameExists, service.ErrEmailExists, service.ErrTagExists, service.ErrAnimeExists),
	response.On(http.StatusRequestEntityTooLarge, service.ErrFileTooLarge),
	response.On(http.StatusBadGateway, service.ErrCrawlFailed),
)

// handleError 按业务错误写入响应，未知错误记录日志并返回通用信息
func handleError(c *gin.Context, log *zap.SugaredLogger, err error, fallback string) {
	if errorTable.Write(c, err, fallback) == http.StatusInternalServerError {
		log.Errorf("%s: %v", fallback, err)
	}
}
