package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/pkg/idgen"
	"github.com/nsxzhou1114/blog-platform/pkg/storage"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

var (
	uploadNamePattern = regexp.MustCompile(`^image-\d+-\d+\.[a-z0-9]+$`)

	// 扩展名对应的内容类型与解码格式
	imageTypes = map[string]struct{ mime, format string }{
		".jpg":  {"image/jpeg", "jpeg"},
		".jpeg": {"image/jpeg", "jpeg"},
		".png":  {"image/png", "png"},
		".gif":  {"image/gif", "gif"},
		".webp": {"image/webp", "webp"},
	}
)

// UploadService 图片上传
type UploadService struct {
	store   storage.Storage
	ids     *idgen.Generator
	maxSize int64
	allowed map[string]bool
	log     *zap.SugaredLogger
}

// NewUploadService 创建上传服务，allowedExts 形如 ".png"
func NewUploadService(store storage.Storage, ids *idgen.Generator, maxSize int64, allowedExts []string, log *zap.SugaredLogger) *UploadService {
	allowed := make(map[string]bool, len(allowedExts))
	for _, ext := range allowedExts {
		allowed[strings.ToLower(ext)] = true
	}
	return &UploadService{store: store, ids: ids, maxSize: maxSize, allowed: allowed, log: log}
}

// Upload 校验并保存图片
func (s *UploadService) Upload(ctx context.Context, file *multipart.FileHeader) (*dto.UploadResponse, error) {
	if file.Size > s.maxSize {
		return nil, fmt.Errorf("%w: 最大允许 %d MB", ErrFileTooLarge, s.maxSize>>20)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	expected, known := imageTypes[ext]
	if !s.allowed[ext] || !known {
		return nil, ErrUnsupportedFileType
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("打开文件失败: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("读取文件数据失败: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	contentType := http.DetectContentType(data)
	if contentType != expected.mime {
		return nil, fmt.Errorf("%w: 文件内容为 %s，与扩展名 %s 不符", ErrUnsupportedFileType, contentType, ext)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		s.log.Warnf("图片 %s 解码失败: %v", file.Filename, err)
		return nil, ErrUnsupportedFileType
	}
	if format != expected.format {
		return nil, fmt.Errorf("%w: 图片格式 %s 与扩展名 %s 不符", ErrUnsupportedFileType, format, ext)
	}

	name := fmt.Sprintf("image-%d-%d%s", time.Now().UnixMilli(), s.ids.Next(), ext)
	url, err := s.store.Save(ctx, name, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		return nil, err
	}
	return &dto.UploadResponse{URL: url, Filename: name, Size: int64(len(data))}, nil
}

// Delete 删除已上传的图片
func (s *UploadService) Delete(ctx context.Context, filename string) error {
	if !uploadNamePattern.MatchString(filename) || !s.allowed[filepath.Ext(filename)] {
		return ErrInvalidFilename
	}
	if err := s.store.Delete(ctx, filename); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrFileNotFound
		}
		return err
	}
	return nil
}
