package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/service"
	"github.com/nsxzhou1114/blog-platform/pkg/response"
	"go.uber.org/zap"
)

// AIApi AI写作助手
type AIApi struct {
	logger    *zap.SugaredLogger
	aiService *service.AIService
}

func NewAIApi(ai *service.AIService, logger *zap.SugaredLogger) *AIApi {
	return &AIApi{logger: logger, aiService: ai}
}

// Generate 按类型生成文本，上游不可用时返回模拟结果
func (api *AIApi) Generate(c *gin.Context) {
	var req dto.AIGenerateRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := api.aiService.Generate(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, err, "生成失败")
		return
	}
	response.Success(c, "生成成功", result)
}
