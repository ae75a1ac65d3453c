package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/pkg/cache"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ArticleService 文章服务
type ArticleService struct {
	db     *gorm.DB
	log    *zap.SugaredLogger
	cache  *cache.ResponseCache
	bloom  *cache.ArticleFilter
	views  *cache.ViewBuffer // 为空时阅读量直接写库
	search *ArticleSearchService
	tags   *TagService
}

// ArticleServiceDeps 文章服务依赖，cache/bloom/views/search 均可为空
type ArticleServiceDeps struct {
	DB     *gorm.DB
	Log    *zap.SugaredLogger
	Cache  *cache.ResponseCache
	Bloom  *cache.ArticleFilter
	Views  *cache.ViewBuffer
	Search *ArticleSearchService
	Tags   *TagService
}

// NewArticleService 创建文章服务
func NewArticleService(deps ArticleServiceDeps) *ArticleService {
	if deps.Log == nil {
		deps.Log = zap.NewNop().Sugar()
	}
	if deps.Bloom == nil {
		deps.Bloom = cache.NewArticleFilter(nil, 100000, 0.01)
	}
	if deps.Tags == nil {
		deps.Tags = NewTagService(deps.DB, deps.Cache, deps.Log)
	}
	return &ArticleService{
		db:     deps.DB,
		log:    deps.Log,
		cache:  deps.Cache,
		bloom:  deps.Bloom,
		views:  deps.Views,
		search: deps.Search,
		tags:   deps.Tags,
	}
}

// List 分页查询文章，非已发布状态仅管理员或作者本人可查
// 返回的 cacheable 为 false 时响应不应写入共享缓存
func (s *ArticleService) List(ctx context.Context, viewer Viewer, req *dto.ArticleQueryRequest) (*dto.ArticleListResponse, bool, error) {
	normalizeArticleQuery(req)

	cacheable := req.Status == model.ArticleStatusPublished
	if !cacheable && !viewer.IsAdmin() && (viewer.UserID == 0 || req.AuthorID != viewer.UserID) {
		return nil, false, ErrPermissionDenied
	}

	if req.Keyword != "" && req.TagID == 0 && s.search.Enabled() && esSortable(req.SortBy) {
		resp, err := s.listFromSearch(ctx, req)
		if err == nil {
			return resp, cacheable, nil
		}
		s.log.Warnf("ES检索失败，回退到数据库查询: %v", err)
	}

	query := s.db.WithContext(ctx).Model(&model.Article{}).Where("articles.status = ?", req.Status)
	if req.AuthorID != 0 {
		query = query.Where("author_id = ?", req.AuthorID)
	}
	if req.TagID != 0 {
		query = query.Where("EXISTS (SELECT 1 FROM article_tags WHERE article_tags.article_id = articles.id AND article_tags.tag_id = ?)", req.TagID)
	}
	if req.Keyword != "" {
		like := containsPattern(req.Keyword)
		query = query.Where("(title LIKE ? ESCAPE '!' OR content LIKE ? ESCAPE '!')", like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, false, err
	}

	var articles []model.Article
	err := query.Omit("content").
		Preload("Author").Preload("Tags").
		Order(clause.OrderByColumn{Column: clause.Column{Name: req.SortBy}, Desc: req.Order == "desc"}).
		Order("id DESC").
		Offset((req.Page - 1) * req.PageSize).Limit(req.PageSize).
		Find(&articles).Error
	if err != nil {
		return nil, false, err
	}

	return &dto.ArticleListResponse{
		Items:    toArticleListItems(articles),
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, cacheable, nil
}

// listFromSearch 由ES确定文章ID与顺序，再从数据库加载
func (s *ArticleService) listFromSearch(ctx context.Context, req *dto.ArticleQueryRequest) (*dto.ArticleListResponse, error) {
	ids, total, err := s.search.Search(ctx, SearchQuery{
		Keyword:  req.Keyword,
		Status:   req.Status,
		AuthorID: req.AuthorID,
		SortBy:   req.SortBy,
		Order:    req.Order,
		From:     (req.Page - 1) * req.PageSize,
		Size:     req.PageSize,
	})
	if err != nil {
		return nil, err
	}

	items := []dto.ArticleListItem{}
	if len(ids) > 0 {
		var articles []model.Article
		if err := s.db.WithContext(ctx).Omit("content").Preload("Author").Preload("Tags").
			Where("id IN ? AND status = ?", ids, req.Status).Find(&articles).Error; err != nil {
			return nil, err
		}
		byID := make(map[uint]model.Article, len(articles))
		for _, a := range articles {
			byID[a.ID] = a
		}
		ordered := make([]model.Article, 0, len(ids))
		for _, id := range ids {
			if a, ok := byID[id]; ok {
				ordered = append(ordered, a)
			}
		}
		items = toArticleListItems(ordered)
	}

	return &dto.ArticleListResponse{Items: items, Total: total, Page: req.Page, PageSize: req.PageSize}, nil
}

// Get 获取文章详情，未发布文章仅作者或管理员可见
func (s *ArticleService) Get(ctx context.Context, viewer Viewer, id uint) (*dto.ArticleDetailResponse, bool, error) {
	article, err := s.loadVisible(ctx, viewer, id)
	if err != nil {
		return nil, false, err
	}
	resp := toArticleDetail(article)
	return &resp, article.IsPublished(), nil
}

// loadVisible 加载访问者可见的文章
func (s *ArticleService) loadVisible(ctx context.Context, viewer Viewer, id uint) (*model.Article, error) {
	if !s.bloom.Test(id) {
		return nil, ErrArticleNotFound
	}

	var article model.Article
	if err := s.db.WithContext(ctx).Preload("Author").Preload("Tags").First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	if !article.IsPublished() && !viewer.CanManage(article.AuthorID) {
		return nil, ErrArticleNotFound
	}
	if article.Status == model.ArticleStatusDeleted && !viewer.IsAdmin() {
		return nil, ErrArticleNotFound
	}
	return &article, nil
}

// Create 创建文章
func (s *ArticleService) Create(ctx context.Context, userID uint, req *dto.ArticleCreateRequest) (*dto.ArticleDetailResponse, error) {
	article := &model.Article{
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		Summary:    req.Summary,
		CoverImage: req.CoverImage,
		AuthorID:   userID,
		Status:     req.Status,
	}
	if article.Status == "" {
		article.Status = model.ArticleStatusDraft
	}
	if article.Title == "" {
		return nil, fmt.Errorf("%w: 标题不能为空", ErrInvalidParam)
	}
	if article.IsPublished() {
		now := time.Now()
		article.PublishedAt = &now
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Author").Create(article).Error; err != nil {
			return err
		}
		tags, err := s.tags.ResolveTags(tx, req.TagIDs, req.Tags)
		if err != nil {
			return err
		}
		return linkTags(tx, article.ID, tags)
	})
	if err != nil {
		return nil, err
	}

	s.bloom.Add(article.ID)
	created, err := s.reload(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	s.search.IndexArticle(ctx, created)

	patterns := []string{cache.ArticleListPattern()}
	if len(created.Tags) > 0 {
		patterns = append(patterns, cache.TagListPattern())
	}
	s.cache.InvalidateQuietly(ctx, patterns...)

	resp := toArticleDetail(created)
	return &resp, nil
}

// Update 部分更新文章，仅作者或管理员
func (s *ArticleService) Update(ctx context.Context, viewer Viewer, id uint, req *dto.ArticleUpdateRequest) (*dto.ArticleDetailResponse, error) {
	article, err := s.loadForWrite(ctx, viewer, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: 标题不能为空", ErrInvalidParam)
		}
		updates["title"] = title
	}
	if req.Content != nil {
		updates["content"] = *req.Content
	}
	if req.Summary != nil {
		updates["summary"] = *req.Summary
	}
	if req.CoverImage != nil {
		updates["cover_image"] = *req.CoverImage
	}
	if req.Status != nil {
		updates["status"] = *req.Status
		if *req.Status == model.ArticleStatusPublished && article.PublishedAt == nil {
			updates["published_at"] = time.Now()
		}
	}
	replaceTags := req.TagIDs != nil || req.Tags != nil

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&model.Article{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if !replaceTags {
			return nil
		}
		tags, err := s.tags.ResolveTags(tx, req.TagIDs, req.Tags)
		if err != nil {
			return err
		}
		if err := tx.Where("article_id = ?", id).Delete(&model.ArticleTag{}).Error; err != nil {
			return err
		}
		return linkTags(tx, id, tags)
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.reload(ctx, id)
	if err != nil {
		return nil, err
	}
	// 恢复的软删除文章需要重新通过预检
	s.bloom.Add(id)
	s.search.IndexArticle(ctx, updated)

	patterns := []string{cache.ArticleListPattern(), cache.ArticleDetailPattern(id)}
	if replaceTags || req.Status != nil {
		patterns = append(patterns, cache.TagListPattern())
	}
	s.cache.InvalidateQuietly(ctx, patterns...)

	resp := toArticleDetail(updated)
	return &resp, nil
}

// Delete 删除文章，默认软删除，hard 为 true 时连同标签关联与评论一并删除
func (s *ArticleService) Delete(ctx context.Context, viewer Viewer, id uint, hard bool) error {
	if _, err := s.loadForWrite(ctx, viewer, id); err != nil {
		return err
	}

	var err error
	if hard {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("article_id = ?", id).Delete(&model.ArticleTag{}).Error; err != nil {
				return err
			}
			if err := tx.Where("article_id = ?", id).Delete(&model.Comment{}).Error; err != nil {
				return err
			}
			return tx.Delete(&model.Article{}, id).Error
		})
	} else {
		err = s.db.WithContext(ctx).Model(&model.Article{}).Where("id = ?", id).
			Update("status", model.ArticleStatusDeleted).Error
	}
	if err != nil {
		return err
	}

	s.search.DeleteArticle(ctx, id)
	s.cache.InvalidateQuietly(ctx, cache.ArticleListPattern(), cache.ArticleDetailPattern(id), cache.TagListPattern())
	return nil
}

// Like 点赞，返回最新点赞数
func (s *ArticleService) Like(ctx context.Context, id uint) (int64, error) {
	if !s.bloom.Test(id) {
		return 0, ErrArticleNotFound
	}

	var article model.Article
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Article{}).
			Where("id = ? AND status = ?", id, model.ArticleStatusPublished).
			UpdateColumn("like_count", gorm.Expr("like_count + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrArticleNotFound
		}
		return tx.Select("id", "like_count").First(&article, id).Error
	})
	if err != nil {
		return 0, err
	}

	s.cache.InvalidateQuietly(ctx, cache.ArticleDetailPattern(id))
	return article.LikeCount, nil
}

// RecordView 记录一次阅读，Redis可用时写入缓冲，由定时任务落库
func (s *ArticleService) RecordView(ctx context.Context, id uint) {
	if s.views != nil {
		err := s.views.Incr(ctx, id)
		if err == nil {
			return
		}
		s.log.Warnf("写入阅读量缓冲失败，直接写库: %v", err)
	}
	if err := s.addViews(s.db.WithContext(ctx), id, 1); err != nil {
		s.log.Warnf("更新文章 %d 阅读量失败: %v", id, err)
	}
}

// FlushViews 将缓冲的阅读量写入数据库，写库失败时归还缓冲
func (s *ArticleService) FlushViews(ctx context.Context) (int, error) {
	if s.views == nil {
		return 0, nil
	}
	counts, err := s.views.Drain(ctx)
	if err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, n := range counts {
			if err := s.addViews(tx, id, n); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if restoreErr := s.views.Restore(ctx, counts); restoreErr != nil {
			s.log.Errorf("归还阅读量缓冲失败: %v", restoreErr)
		}
		return 0, fmt.Errorf("阅读量落库失败: %w", err)
	}
	return len(counts), nil
}

func (s *ArticleService) addViews(db *gorm.DB, id uint, n int64) error {
	return db.Model(&model.Article{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", n)).Error
}

// WarmBloom 用全部文章ID重建布隆过滤器，软删除文章仍可被管理员查看和恢复
func (s *ArticleService) WarmBloom(ctx context.Context) (int, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&model.Article{}).Pluck("id", &ids).Error; err != nil {
		return 0, fmt.Errorf("加载文章ID失败: %w", err)
	}
	s.bloom.Warm(ids)
	return len(ids), nil
}

// SaveBloom 持久化布隆过滤器
func (s *ArticleService) SaveBloom(ctx context.Context) error {
	return s.bloom.SaveToRedis(ctx)
}

// ArticleExists 布隆过滤器预检
func (s *ArticleService) ArticleExists(id uint) bool {
	return s.bloom.Test(id)
}

// loadForWrite 加载待修改文章并校验权限
func (s *ArticleService) loadForWrite(ctx context.Context, viewer Viewer, id uint) (*model.Article, error) {
	var article model.Article
	if err := s.db.WithContext(ctx).First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	if article.Status == model.ArticleStatusDeleted && !viewer.IsAdmin() {
		return nil, ErrArticleNotFound
	}
	if !viewer.CanManage(article.AuthorID) {
		return nil, ErrPermissionDenied
	}
	return &article, nil
}

// linkTags 写入文章标签关联，tags 已去重
func linkTags(tx *gorm.DB, articleID uint, tags []model.Tag) error {
	if len(tags) == 0 {
		return nil
	}
	links := make([]model.ArticleTag, 0, len(tags))
	for _, t := range tags {
		links = append(links, model.ArticleTag{ArticleID: articleID, TagID: t.ID})
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("关联标签失败: %w", err)
	}
	return nil
}

func (s *ArticleService) reload(ctx context.Context, id uint) (*model.Article, error) {
	var article model.Article
	if err := s.db.WithContext(ctx).Preload("Author").Preload("Tags").First(&article, id).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func normalizeArticleQuery(req *dto.ArticleQueryRequest) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}
	if req.Status == "" {
		req.Status = model.ArticleStatusPublished
	}
	if req.SortBy == "" {
		req.SortBy = "published_at"
	}
	if req.Order != "asc" {
		req.Order = "desc"
	}
	req.Keyword = strings.TrimSpace(req.Keyword)
}

// likeEscaper 转义LIKE通配符，'!' 在 MySQL 与 SQLite 中都不需要额外转义
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern 生成按字面量子串匹配的LIKE模式，配合 ESCAPE '!' 使用
func containsPattern(kw string) string {
	return "%" + likeEscaper.Replace(kw) + "%"
}

// esSortable 排序字段是否存在于检索文档中
func esSortable(sortBy string) bool {
	switch sortBy {
	case "published_at", "created_at", "updated_at", "title":
		return true
	}
	return false
}

func toTagInfos(tags []model.Tag) []dto.TagInfo {
	infos := make([]dto.TagInfo, 0, len(tags))
	for _, t := range tags {
		infos = append(infos, dto.TagInfo{ID: t.ID, Name: t.Name, Color: t.Color})
	}
	return infos
}

func toArticleListItem(a *model.Article) dto.ArticleListItem {
	return dto.ArticleListItem{
		ID:           a.ID,
		Title:        a.Title,
		Summary:      a.Summary,
		CoverImage:   a.CoverImage,
		AuthorID:     a.AuthorID,
		AuthorName:   a.Author.Username,
		AuthorAvatar: a.Author.Avatar,
		Status:       a.Status,
		ViewCount:    a.ViewCount,
		LikeCount:    a.LikeCount,
		Tags:         toTagInfos(a.Tags),
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		PublishedAt:  a.PublishedAt,
	}
}

func toArticleListItems(articles []model.Article) []dto.ArticleListItem {
	items := make([]dto.ArticleListItem, 0, len(articles))
	for i := range articles {
		items = append(items, toArticleListItem(&articles[i]))
	}
	return items
}

func toArticleDetail(a *model.Article) dto.ArticleDetailResponse {
	return dto.ArticleDetailResponse{ArticleListItem: toArticleListItem(a), Content: a.Content}
}
