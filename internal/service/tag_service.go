package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/pkg/cache"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TagService 标签服务
type TagService struct {
	db    *gorm.DB
	cache *cache.ResponseCache
	log   *zap.SugaredLogger
}

// NewTagService 创建标签服务
func NewTagService(db *gorm.DB, rc *cache.ResponseCache, log *zap.SugaredLogger) *TagService {
	return &TagService{db: db, cache: rc, log: log}
}

// articleCountSQL 统计已发布文章数的子查询
const articleCountSQL = `(SELECT COUNT(*) FROM article_tags atg
	JOIN articles a ON a.id = atg.article_id
	WHERE atg.tag_id = tags.id AND a.status = ?) AS article_count`

// List 获取全部标签，按名称升序
func (s *TagService) List(ctx context.Context, withCount bool) ([]dto.TagResponse, error) {
	var tags []model.Tag
	query := s.db.WithContext(ctx).Model(&model.Tag{})
	if withCount {
		query = query.Select("tags.*, "+articleCountSQL, model.ArticleStatusPublished)
	}
	if err := query.Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}

	items := make([]dto.TagResponse, 0, len(tags))
	for i := range tags {
		item := dto.TagResponse{ID: tags[i].ID, Name: tags[i].Name, Color: tags[i].Color}
		if withCount {
			count := tags[i].ArticleCount
			item.ArticleCount = &count
		}
		items = append(items, item)
	}
	return items, nil
}

// Create 创建标签
func (s *TagService) Create(ctx context.Context, req *dto.TagCreateRequest) (*dto.TagResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: 标签名不能为空", ErrInvalidParam)
	}
	if err := s.ensureNameFree(ctx, name, 0); err != nil {
		return nil, err
	}

	tag := &model.Tag{Name: name, Color: req.Color}
	if tag.Color == "" {
		tag.Color = model.DefaultTagColor
	}
	if err := s.db.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return &dto.TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color}, nil
}

// Update 更新标签名称或颜色
func (s *TagService) Update(ctx context.Context, id uint, req *dto.TagUpdateRequest) (*dto.TagResponse, error) {
	tag, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: 标签名不能为空", ErrInvalidParam)
		}
		if name != tag.Name {
			if err := s.ensureNameFree(ctx, name, id); err != nil {
				return nil, err
			}
			updates["name"] = name
			tag.Name = name
		}
	}
	if req.Color != nil {
		updates["color"] = *req.Color
		tag.Color = *req.Color
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&model.Tag{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
		s.invalidate(ctx)
	}
	return &dto.TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color}, nil
}

// Delete 删除标签及其文章关联
func (s *TagService) Delete(ctx context.Context, id uint) error {
	tag, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tag_id = ?", id).Delete(&model.ArticleTag{}).Error; err != nil {
			return err
		}
		return tx.Delete(tag).Error
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

// GetByID 根据ID获取标签
func (s *TagService) GetByID(ctx context.Context, id uint) (*model.Tag, error) {
	var tag model.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTagNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// ResolveTags 在事务中解析标签ID与标签名，缺失的标签名自动创建，结果去重
func (s *TagService) ResolveTags(tx *gorm.DB, ids []uint, names []string) ([]model.Tag, error) {
	var tags []model.Tag
	seen := make(map[uint]struct{})

	if len(ids) > 0 {
		unique := uniqueIDs(ids)
		if err := tx.Where("id IN ?", unique).Find(&tags).Error; err != nil {
			return nil, err
		}
		if len(tags) != len(unique) {
			return nil, ErrInvalidTagIDs
		}
		for _, t := range tags {
			seen[t.ID] = struct{}{}
		}
	}

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		tag := model.Tag{Name: name}
		if err := tx.Where(model.Tag{Name: name}).
			Attrs(model.Tag{Color: model.DefaultTagColor}).
			FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("创建标签 %s 失败: %w", name, err)
		}
		if _, ok := seen[tag.ID]; ok {
			continue
		}
		seen[tag.ID] = struct{}{}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (s *TagService) ensureNameFree(ctx context.Context, name string, exceptID uint) error {
	var count int64
	query := s.db.WithContext(ctx).Model(&model.Tag{}).Where("name = ?", name)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrTagExists
	}
	return nil
}

// invalidate 标签变化影响标签列表与所有带标签的文章响应
func (s *TagService) invalidate(ctx context.Context) {
	s.cache.InvalidateQuietly(ctx, cache.TagListPattern(), cache.ArticleListPattern(), cache.AllArticleDetailPattern())
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
