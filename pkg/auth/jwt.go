package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/nsxzhou1114/blog-platform/internal/config"
)

// TokenType 定义token类型
type TokenType string

const (
	// AccessToken 访问令牌，用于访问资源
	AccessToken TokenType = "access"
	// RefreshToken 刷新令牌，用于获取新的访问令牌
	RefreshToken TokenType = "refresh"
)

var (
	ErrTokenInvalid = errors.New("无效的令牌")
	ErrTokenExpired = errors.New("令牌已过期")
	ErrTokenRevoked = errors.New("令牌已被撤销")
	ErrTokenType    = errors.New("令牌类型错误")
)

// Claims 自定义JWT声明结构体
type Claims struct {
	UserID uint      `json:"user_id"`
	Role   string    `json:"role"`
	Type   TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenID 令牌唯一ID
func (c *Claims) TokenID() string {
	return c.ID
}

// ExpireAt 过期时间
func (c *Claims) ExpireAt() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// TokenPair 包含访问令牌和刷新令牌
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // 访问令牌过期时间（秒）
}

// Manager 负责签发、解析与撤销令牌
type Manager struct {
	secret        []byte
	issuer        string
	accessExpire  time.Duration
	refreshExpire time.Duration
	buffer        time.Duration
	blacklist     Blacklist
	now           func() time.Time
}

// NewManager 创建令牌管理器
func NewManager(cfg config.JWTConfig, blacklist Blacklist) *Manager {
	if blacklist == nil {
		blacklist = NewMemoryBlacklist(time.Duration(cfg.RefreshExpireSeconds) * time.Second)
	}
	return &Manager{
		secret:        []byte(cfg.SecretKey),
		issuer:        cfg.Issuer,
		accessExpire:  time.Duration(cfg.AccessExpireSeconds) * time.Second,
		refreshExpire: time.Duration(cfg.RefreshExpireSeconds) * time.Second,
		buffer:        time.Duration(cfg.BufferSeconds) * time.Second,
		blacklist:     blacklist,
		now:           time.Now,
	}
}

// GenerateTokenPair 生成访问令牌和刷新令牌对
func (m *Manager) GenerateTokenPair(userID uint, role string) (*TokenPair, error) {
	accessToken, err := m.generateToken(userID, role, AccessToken, m.accessExpire)
	if err != nil {
		return nil, err
	}
	refreshToken, err := m.generateToken(userID, role, RefreshToken, m.refreshExpire)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(m.accessExpire.Seconds()),
	}, nil
}

// generateToken 创建指定类型的JWT令牌
func (m *Manager) generateToken(userID uint, role string, tokenType TokenType, expiration time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// parse 校验签名与有效期，不检查黑名单
func (m *Manager) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ParseToken 解析令牌并校验类型与黑名单
func (m *Manager) ParseToken(ctx context.Context, tokenString string, expected TokenType) (*Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != expected {
		return nil, ErrTokenType
	}
	if m.blacklist.Contains(ctx, claims.ID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// ExpiresSoon 令牌是否即将过期
func (m *Manager) ExpiresSoon(claims *Claims) bool {
	return claims.ExpireAt().Sub(m.now()) < m.buffer
}

// RefreshAccessToken 使用刷新令牌换取新的令牌对，旧刷新令牌随即失效
func (m *Manager) RefreshAccessToken(ctx context.Context, refreshTokenString string) (*TokenPair, error) {
	claims, err := m.ParseToken(ctx, refreshTokenString, RefreshToken)
	if err != nil {
		return nil, err
	}

	pair, err := m.GenerateTokenPair(claims.UserID, claims.Role)
	if err != nil {
		return nil, err
	}
	if err := m.blacklist.Add(ctx, claims.ID, claims.ExpireAt()); err != nil {
		return nil, err
	}
	return pair, nil
}

// RevokeToken 撤销令牌（登出时使用）
func (m *Manager) RevokeToken(ctx context.Context, claims *Claims) error {
	return m.blacklist.Add(ctx, claims.ID, claims.ExpireAt())
}
