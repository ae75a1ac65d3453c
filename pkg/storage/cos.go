package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/nsxzhou1114/blog-platform/internal/config"
	"github.com/tencentyun/cos-go-sdk-v5"
)

// COS 腾讯云对象存储
type COS struct {
	client  *cos.Client
	prefix  string
	baseURL string
}

// NewCOS 创建腾讯云COS存储
func NewCOS(cfg config.COSStorage) (*COS, error) {
	u, err := url.Parse(cfg.BucketURL)
	if err != nil {
		return nil, fmt.Errorf("解析COS URL失败: %w", err)
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  cfg.SecretID,
			SecretKey: cfg.SecretKey,
		},
	})

	baseURL := cfg.URLPrefix
	if baseURL == "" {
		baseURL = cfg.BucketURL
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "images"
	}
	return &COS{client: client, prefix: prefix, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *COS) objectKey(name string) string {
	return path.Join(s.prefix, path.Base(name))
}

// Save 上传对象
func (s *COS) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error) {
	key := s.objectKey(name)
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{
			ContentType:   contentType,
			ContentLength: size,
		},
	}
	if _, err := s.client.Object.Put(ctx, key, r, opt); err != nil {
		return "", fmt.Errorf("上传到腾讯云失败: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// Delete 删除对象
func (s *COS) Delete(ctx context.Context, name string) error {
	key := s.objectKey(name)
	ok, err := s.client.Object.IsExist(ctx, key)
	if err != nil {
		return fmt.Errorf("查询腾讯云对象失败: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if _, err := s.client.Object.Delete(ctx, key); err != nil {
		return fmt.Errorf("删除腾讯云对象失败: %w", err)
	}
	return nil
}
