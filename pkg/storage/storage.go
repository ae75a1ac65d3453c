package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nsxzhou1114/blog-platform/internal/config"
)

// ErrNotFound 文件不存在
var ErrNotFound = errors.New("文件不存在")

// Storage 上传文件的存储后端
type Storage interface {
	// Save 保存文件并返回访问URL
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	// Delete 删除文件，不存在时返回 ErrNotFound
	Delete(ctx context.Context, name string) error
}

// New 按配置创建存储后端
func New(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocal(cfg.Local.Path, cfg.Local.URLPrefix), nil
	case "cos":
		return NewCOS(cfg.COS)
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Type)
	}
}
