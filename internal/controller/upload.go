package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/service"
	"github.com/nsxzhou1114/blog-platform/pkg/response"
	"go.uber.org/zap"
)

// UploadApi 图片上传
type UploadApi struct {
	logger        *zap.SugaredLogger
	uploadService *service.UploadService
}

func NewUploadApi(uploads *service.UploadService, logger *zap.SugaredLogger) *UploadApi {
	return &UploadApi{logger: logger, uploadService: uploads}
}

// UploadImage 上传图片，表单字段 image
func (api *UploadApi) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		response.BadRequest(c, "请选择要上传的图片", err)
		return
	}

	result, err := api.uploadService.Upload(c.Request.Context(), file)
	if err != nil {
		handleError(c, api.logger, err, "上传图片失败")
		return
	}
	response.Success(c, "上传成功", result)
}

// DeleteImage 删除已上传的图片
func (api *UploadApi) DeleteImage(c *gin.Context) {
	if err := api.uploadService.Delete(c.Request.Context(), c.Param("filename")); err != nil {
		handleError(c, api.logger, err, "删除图片失败")
		return
	}
	response.Success(c, "删除成功", nil)
}
