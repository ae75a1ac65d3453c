package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/pkg/auth"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService 用户与认证服务
type UserService struct {
	db      *gorm.DB
	tokens  *auth.Manager
	captcha *CaptchaService // 为空时注册不校验验证码
	logger  *zap.SugaredLogger
}

// NewUserService 创建用户服务
func NewUserService(db *gorm.DB, tokens *auth.Manager, captcha *CaptchaService, logger *zap.SugaredLogger) *UserService {
	return &UserService{db: db, tokens: tokens, captcha: captcha, logger: logger}
}

// CaptchaEnabled 注册是否需要验证码
func (s *UserService) CaptchaEnabled() bool {
	return s.captcha != nil
}

// NewCaptcha 生成注册验证码
func (s *UserService) NewCaptcha() (*dto.CaptchaResponse, error) {
	if s.captcha == nil {
		return nil, fmt.Errorf("%w: 验证码未开启", ErrInvalidParam)
	}
	id, image, err := s.captcha.Generate()
	if err != nil {
		return nil, fmt.Errorf("生成验证码失败: %w", err)
	}
	return &dto.CaptchaResponse{CaptchaID: id, Image: image}, nil
}

// Register 用户注册
func (s *UserService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	if s.captcha != nil && !s.captcha.Verify(req.CaptchaID, req.CaptchaCode) {
		return nil, ErrCaptchaInvalid
	}

	user, err := s.CreateUser(ctx, req.Username, req.Email, req.Password, model.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(user)
}

// Login 用户名或邮箱登录
func (s *UserService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user model.User
	query := s.db.WithContext(ctx)
	if strings.Contains(req.Username, "@") {
		query = query.Where("email = ?", req.Username)
	} else {
		query = query.Where("username = ?", req.Username)
	}

	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueTokens(&user)
}

// RefreshToken 刷新访问令牌
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	return s.tokens.RefreshAccessToken(ctx, refreshToken)
}

// Logout 撤销当前访问令牌
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	return s.tokens.RevokeToken(ctx, claims)
}

// Profile 获取个人资料
func (s *UserService) Profile(ctx context.Context, userID uint) (*dto.UserResponse, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// UpdateProfile 更新头像和邮箱
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, req *dto.ProfileUpdateRequest) (*dto.UserResponse, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Email != nil && *req.Email != user.Email {
		if err := s.ensureUnique(ctx, "email", *req.Email, ErrEmailExists); err != nil {
			return nil, err
		}
		updates["email"] = *req.Email
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return s.Profile(ctx, userID)
}

// GetUserByID 根据ID获取用户
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser 创建用户，用户名和邮箱唯一
func (s *UserService) CreateUser(ctx context.Context, username, email, password, role string) (*model.User, error) {
	if err := s.ensureUnique(ctx, "username", username, ErrUsernameExists); err != nil {
		return nil, err
	}
	if err := s.ensureUnique(ctx, "email", email, ErrEmailExists); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username: username,
		Email:    email,
		Password: hashed,
		Role:     role,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	s.logger.Infof("创建用户 %s (%s)", username, role)
	return user, nil
}

// EnsureAdmin 确保管理员账号存在，已存在时提升为管理员并重置密码
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		_, err := s.CreateUser(ctx, username, email, password, model.RoleAdmin)
		return err == nil, err
	}
	if err != nil {
		return false, err
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	return false, s.db.WithContext(ctx).Model(&user).Updates(map[string]interface{}{
		"role":     model.RoleAdmin,
		"password": hashed,
	}).Error
}

// ResetPassword 重置指定用户的密码
func (s *UserService) ResetPassword(ctx context.Context, username, password string) error {
	hashed, err := hashPassword(password)
	if err != nil {
		return err
	}
	result := s.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Update("password", hashed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ListUsers 列出全部用户
func (s *UserService) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, err
}

func (s *UserService) ensureUnique(ctx context.Context, column, value string, conflict error) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where(column+" = ?", value).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return conflict
	}
	return nil
}

func (s *UserService) issueTokens(user *model.User) (*dto.AuthResponse, error) {
	pair, err := s.tokens.GenerateTokenPair(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("生成令牌失败: %w", err)
	}
	return &dto.AuthResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		User:         toUserResponse(user),
	}, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("密码加密失败: %w", err)
	}
	return string(hashed), nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Avatar:    u.Avatar,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
