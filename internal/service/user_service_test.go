package service

import (
	"context"
	"testing"

	"github.com/nsxzhou1114/blog-platform/internal/config"
	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T, captcha *CaptchaService) *UserService {
	t.Helper()

	cfg := config.Default().JWT
	cfg.SecretKey = "test-secret"
	return NewUserService(newTestDB(t), auth.NewManager(cfg, nil), captcha, testLog)
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	svc := newUserService(t, nil)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, model.RoleUser, resp.User.Role)

	_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUsernameExists)
	_, err = svc.Register(ctx, &dto.RegisterRequest{Username: "bob", Email: "alice@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrEmailExists)

	login, err := svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "alice", login.User.Username)

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "alice@example.com", Password: "secret1"})
	assert.NoError(t, err, "email works as login name")

	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserService_RefreshAndLogout(t *testing.T) {
	svc := newUserService(t, nil)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &dto.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)

	pair, err := svc.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, resp.Token, pair.AccessToken)

	_, err = svc.RefreshToken(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked, "refresh tokens are single use")

	claims, err := svc.tokens.ParseToken(ctx, pair.AccessToken, auth.AccessToken)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))
	_, err = svc.tokens.ParseToken(ctx, pair.AccessToken, auth.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
}

func TestUserService_RegisterWithCaptcha(t *testing.T) {
	captcha := NewCaptchaService(config.Default().Captcha)
	svc := newUserService(t, captcha)
	ctx := context.Background()

	challenge, err := svc.NewCaptcha()
	require.NoError(t, err)
	assert.NotEmpty(t, challenge.Image)

	_, err = svc.Register(ctx, &dto.RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "secret1",
		CaptchaID: challenge.CaptchaID, CaptchaCode: "wrong",
	})
	assert.ErrorIs(t, err, ErrCaptchaInvalid)

	challenge, err = svc.NewCaptcha()
	require.NoError(t, err)
	answer := captcha.store.Get(challenge.CaptchaID, false)
	_, err = svc.Register(ctx, &dto.RegisterRequest{
		Username: "alice", Email: "alice@example.com", Password: "secret1",
		CaptchaID: challenge.CaptchaID, CaptchaCode: answer,
	})
	assert.NoError(t, err)
}

func TestUserService_ProfileUpdate(t *testing.T) {
	svc := newUserService(t, nil)
	ctx := context.Background()

	alice, err := svc.CreateUser(ctx, "alice", "alice@example.com", "secret1", model.RoleUser)
	require.NoError(t, err)
	_, err = svc.CreateUser(ctx, "bob", "bob@example.com", "secret1", model.RoleUser)
	require.NoError(t, err)

	taken := "bob@example.com"
	_, err = svc.UpdateProfile(ctx, alice.ID, &dto.ProfileUpdateRequest{Email: &taken})
	assert.ErrorIs(t, err, ErrEmailExists)

	avatar := "/uploads/a.png"
	profile, err := svc.UpdateProfile(ctx, alice.ID, &dto.ProfileUpdateRequest{Avatar: &avatar})
	require.NoError(t, err)
	assert.Equal(t, avatar, profile.Avatar)

	_, err = svc.Profile(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_EnsureAdminAndResetPassword(t *testing.T) {
	svc := newUserService(t, nil)
	ctx := context.Background()

	created, err := svc.EnsureAdmin(ctx, "root", "root@example.com", "first-pass")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureAdmin(ctx, "root", "root@example.com", "second-pass")
	require.NoError(t, err)
	assert.False(t, created)

	resp, err := svc.Login(ctx, &dto.LoginRequest{Username: "root", Password: "second-pass"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.User.Role)

	require.NoError(t, svc.ResetPassword(ctx, "root", "third-pass"))
	_, err = svc.Login(ctx, &dto.LoginRequest{Username: "root", Password: "third-pass"})
	assert.NoError(t, err)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "ghost", "x"), ErrUserNotFound)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
