package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local 本地磁盘存储，文件通过静态路由对外提供
type Local struct {
	dir       string
	urlPrefix string
}

// NewLocal 创建本地存储
func NewLocal(dir, urlPrefix string) *Local {
	return &Local{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

// Dir 存储目录
func (l *Local) Dir() string {
	return l.dir
}

// URLPrefix 访问前缀
func (l *Local) URLPrefix() string {
	return l.urlPrefix
}

// Save 保存到本地目录
func (l *Local) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("创建上传目录失败: %w", err)
	}

	path := filepath.Join(l.dir, filepath.Base(name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("保存文件失败: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("保存文件失败: %w", err)
	}

	return l.urlPrefix + "/" + filepath.Base(name), nil
}

// Delete 删除本地文件
func (l *Local) Delete(_ context.Context, name string) error {
	err := os.Remove(filepath.Join(l.dir, filepath.Base(name)))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
