package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/pkg/auth"
	"github.com/nsxzhou1114/blog-platform/pkg/response"
)

// 上下文键
const (
	ContextUserID   = "userID"
	ContextUserRole = "userRole"
	ContextTokenID  = "tokenID"
	ContextClaims   = "claims"
)

// HeaderTokenExpireSoon 访问令牌即将过期时返回的响应头
const HeaderTokenExpireSoon = "X-Token-Expire-Soon"

// JWTAuth JWT认证中间件
func JWTAuth(m *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c, m); !ok {
			return
		}
		c.Next()
	}
}

// AdminAuth 管理员认证中间件
func AdminAuth(m *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, m)
		if !ok {
			return
		}
		if claims.Role != model.RoleAdmin {
			response.Forbidden(c, "需要管理员权限", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth 可选认证，令牌缺失或无效时按匿名用户继续
func OptionalAuth(m *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token != "" {
			if claims, err := m.ParseToken(c.Request.Context(), token, auth.AccessToken); err == nil {
				setClaims(c, m, claims)
			}
		}
		c.Next()
	}
}

// authenticate 解析并校验访问令牌，失败时写入401并中止
func authenticate(c *gin.Context, m *auth.Manager) (*auth.Claims, bool) {
	token := bearerToken(c)
	if token == "" {
		response.Unauthorized(c, "未提供认证令牌", nil)
		c.Abort()
		return nil, false
	}

	claims, err := m.ParseToken(c.Request.Context(), token, auth.AccessToken)
	if err != nil {
		msg := "无效的认证令牌"
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			msg = "认证令牌已过期"
		case errors.Is(err, auth.ErrTokenRevoked):
			msg = "认证令牌已失效"
		}
		response.Unauthorized(c, msg, err)
		c.Abort()
		return nil, false
	}

	setClaims(c, m, claims)
	return claims, true
}

func setClaims(c *gin.Context, m *auth.Manager, claims *auth.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUserRole, claims.Role)
	c.Set(ContextTokenID, claims.TokenID())
	c.Set(ContextClaims, claims)
	if m.ExpiresSoon(claims) {
		c.Header(HeaderTokenExpireSoon, "true")
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetUserID 从上下文中获取用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// GetUserRole 从上下文中获取用户角色
func GetUserRole(c *gin.Context) string {
	return c.GetString(ContextUserRole)
}

// GetClaims 从上下文中获取令牌声明
func GetClaims(c *gin.Context) (*auth.Claims, bool) {
	v, exists := c.Get(ContextClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
