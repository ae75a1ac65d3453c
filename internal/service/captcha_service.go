package service

import (
	"github.com/mojocn/base64Captcha"
	"github.com/nsxzhou1114/blog-platform/internal/config"
)

// CaptchaService 图形验证码，答案保存在进程内存中
type CaptchaService struct {
	captcha *base64Captcha.Captcha
	store   base64Captcha.Store
}

// NewCaptchaService 创建数字验证码服务
func NewCaptchaService(cfg config.CaptchaConfig) *CaptchaService {
	store := base64Captcha.DefaultMemStore
	driver := base64Captcha.NewDriverDigit(cfg.ImgHeight, cfg.ImgWidth, cfg.KeyLong, 0.7, 80)
	return &CaptchaService{
		captcha: base64Captcha.NewCaptcha(driver, store),
		store:   store,
	}
}

// Generate 生成验证码，返回ID与base64图片
func (s *CaptchaService) Generate() (string, string, error) {
	id, b64s, _, err := s.captcha.Generate()
	return id, b64s, err
}

// Verify 校验验证码，校验后作废
func (s *CaptchaService) Verify(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return s.store.Verify(id, answer, true)
}
