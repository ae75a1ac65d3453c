package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/middleware"
	"github.com/nsxzhou1114/blog-platform/internal/service"
	"github.com/nsxzhou1114/blog-platform/pkg/response"
	"go.uber.org/zap"
)

// UserApi 认证与用户资料
type UserApi struct {
	logger      *zap.SugaredLogger
	userService *service.UserService
}

func NewUserApi(users *service.UserService, logger *zap.SugaredLogger) *UserApi {
	return &UserApi{
		logger:      logger,
		userService: users,
	}
}

// Register 用户注册
func (api *UserApi) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := api.userService.Register(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, err, "注册失败")
		return
	}
	response.Created(c, "注册成功", resp)
}

// Login 用户登录，支持用户名或邮箱
func (api *UserApi) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := api.userService.Login(c.Request.Context(), &req)
	if err != nil {
		handleError(c, api.logger, err, "登录失败")
		return
	}
	response.Success(c, "登录成功", resp)
}

// RefreshToken 刷新访问令牌
func (api *UserApi) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := api.userService.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleError(c, api.logger, err, "刷新令牌失败")
		return
	}
	response.Success(c, "刷新成功", pair)
}

// Logout 退出登录，当前访问令牌立即失效
func (api *UserApi) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		response.Unauthorized(c, "未登录", nil)
		return
	}

	if err := api.userService.Logout(c.Request.Context(), claims); err != nil {
		handleError(c, api.logger, err, "退出登录失败")
		return
	}
	response.Success(c, "退出成功", nil)
}

// Profile 获取当前用户资料
func (api *UserApi) Profile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	user, err := api.userService.Profile(c.Request.Context(), userID)
	if err != nil {
		handleError(c, api.logger, err, "获取用户信息失败")
		return
	}
	response.Success(c, "获取成功", user)
}

// UpdateProfile 更新当前用户资料
func (api *UserApi) UpdateProfile(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req dto.ProfileUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := api.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		handleError(c, api.logger, err, "更新用户信息失败")
		return
	}
	response.Success(c, "更新成功", user)
}

// Captcha 获取图形验证码
func (api *UserApi) Captcha(c *gin.Context) {
	captcha, err := api.userService.NewCaptcha()
	if err != nil {
		handleError(c, api.logger, err, "生成验证码失败")
		return
	}
	response.Success(c, "获取成功", captcha)
}
