package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

// AnimeService 番剧目录服务
type AnimeService struct {
	db      *gorm.DB
	crawler *AnimeCrawler
	log     *zap.SugaredLogger
}

// NewAnimeService 创建番剧服务
func NewAnimeService(db *gorm.DB, crawler *AnimeCrawler, log *zap.SugaredLogger) *AnimeService {
	return &AnimeService{db: db, crawler: crawler, log: log}
}

// List 分页查询番剧
func (s *AnimeService) List(ctx context.Context, req *dto.AnimeQueryRequest) (*dto.AnimeListResponse, error) {
	page, size := req.Page, req.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}

	query := s.db.WithContext(ctx).Model(&model.Anime{})
	if kw := strings.TrimSpace(req.Keyword); kw != "" {
		like := containsPattern(kw)
		query = query.Where("(cn_name LIKE ? ESCAPE '!' OR original_title LIKE ? ESCAPE '!' OR aliases LIKE ? ESCAPE '!')", like, like, like)
	}
	if req.AnimeClass != "" {
		query = query.Where("anime_class = ?", req.AnimeClass)
	}
	if req.Country != "" {
		query = query.Where("country = ?", req.Country)
	}
	if req.Tag != "" {
		query = query.Where("tags LIKE ? ESCAPE '!'", containsPattern(req.Tag))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	list := []model.Anime{}
	err := query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: sortBy}, Desc: req.Order != "asc"}).
		Order("id DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&list).Error
	if err != nil {
		return nil, err
	}

	return &dto.AnimeListResponse{
		List: list,
		Pagination: dto.Pagination{
			Page:       page,
			PageSize:   size,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(size))),
		},
	}, nil
}

// Stats 统计总数、TV与剧场版数量及平均评分，各项并发查询
func (s *AnimeService) Stats(ctx context.Context) (*dto.AnimeStats, error) {
	var stats dto.AnimeStats
	g, gctx := errgroup.WithContext(ctx)

	count := func(dst *int64, scope func(*gorm.DB) *gorm.DB) func() error {
		return func() error {
			return scope(s.db.WithContext(gctx).Model(&model.Anime{})).Count(dst).Error
		}
	}
	g.Go(count(&stats.Total, func(db *gorm.DB) *gorm.DB { return db }))
	g.Go(count(&stats.TVCount, func(db *gorm.DB) *gorm.DB {
		return db.Where("anime_class = ?", model.AnimeClassTV)
	}))
	g.Go(count(&stats.FilmCount, func(db *gorm.DB) *gorm.DB {
		return db.Where("anime_class = ?", model.AnimeClassFilm)
	}))
	g.Go(func() error {
		var avg sql.NullFloat64
		err := s.db.WithContext(gctx).Model(&model.Anime{}).
			Where("rating > 0").Select("AVG(rating)").Row().Scan(&avg)
		if err != nil {
			return err
		}
		if avg.Valid {
			stats.AvgRating = math.Round(avg.Float64*100) / 100
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("统计番剧失败: %w", err)
	}
	return &stats, nil
}

// Get 获取番剧详情
func (s *AnimeService) Get(ctx context.Context, id uint) (*model.Anime, error) {
	var anime model.Anime
	if err := s.db.WithContext(ctx).First(&anime, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAnimeNotFound
		}
		return nil, err
	}
	return &anime, nil
}

// Create 创建番剧，uid 与中文名必填
func (s *AnimeService) Create(ctx context.Context, req *dto.AnimeRequest) (*model.Anime, error) {
	if strings.TrimSpace(req.UID) == "" || strings.TrimSpace(req.CnName) == "" {
		return nil, fmt.Errorf("%w: uid 与 cn_name 不能为空", ErrInvalidParam)
	}
	if err := s.ensureUIDFree(ctx, req.UID, 0); err != nil {
		return nil, err
	}

	anime := &model.Anime{}
	if err := applyAnimeRequest(anime, req); err != nil {
		return nil, err
	}
	if anime.AnimeClass == "" {
		anime.AnimeClass = model.AnimeClassTV
	}
	if anime.MediaSource == "" {
		anime.MediaSource = "bangumi"
	}
	if err := s.db.WithContext(ctx).Create(anime).Error; err != nil {
		return nil, err
	}
	return anime, nil
}

// Update 更新番剧，请求中的非空字段覆盖原值
func (s *AnimeService) Update(ctx context.Context, id uint, req *dto.AnimeRequest) (*model.Anime, error) {
	anime, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.UID != "" && req.UID != anime.UID {
		if err := s.ensureUIDFree(ctx, req.UID, id); err != nil {
			return nil, err
		}
	}
	if err := applyAnimeRequest(anime, req); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(anime).Error; err != nil {
		return nil, err
	}
	return anime, nil
}

// Delete 删除番剧
func (s *AnimeService) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&model.Anime{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAnimeNotFound
	}
	return nil
}

// Crawl 从 bangumi 抓取条目信息，只返回数据不入库
func (s *AnimeService) Crawl(ctx context.Context, pageURL string) (*dto.AnimeRequest, error) {
	uid, err := ParseBangumiURL(pageURL)
	if err != nil {
		return nil, err
	}
	if err := s.ensureUIDFree(ctx, uid, 0); err != nil {
		return nil, err
	}

	anime, err := s.crawler.Fetch(ctx, pageURL, uid)
	if err != nil {
		s.log.Warnf("抓取番剧 %s 失败: %v", pageURL, err)
		return nil, err
	}
	return anime, nil
}

func (s *AnimeService) ensureUIDFree(ctx context.Context, uid string, exceptID uint) error {
	var count int64
	query := s.db.WithContext(ctx).Model(&model.Anime{}).Where("uid = ?", uid)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrAnimeExists
	}
	return nil
}

// applyAnimeRequest 把请求中的非零字段写入模型
func applyAnimeRequest(a *model.Anime, req *dto.AnimeRequest) error {
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&a.UID, req.UID)
	setString(&a.CnName, req.CnName)
	setString(&a.OriginalTitle, req.OriginalTitle)
	setString(&a.Aliases, req.Aliases)
	setString(&a.CoverURL, req.CoverURL)
	setString(&a.Plot, req.Plot)
	setString(&a.Tags, req.Tags)
	setString(&a.Studio, req.Studio)
	setString(&a.Source, req.Source)
	setString(&a.OriginalAuthor, req.OriginalAuthor)
	setString(&a.Writer, req.Writer)
	setString(&a.Director, req.Director)
	setString(&a.AnimeClass, req.AnimeClass)
	setString(&a.Country, req.Country)
	setString(&a.Episodes, req.Episodes)
	setString(&a.Website, req.Website)
	setString(&a.Cast, req.Cast)
	setString(&a.MediaSource, req.MediaSource)
	if req.Rating > 0 {
		a.Rating = req.Rating
	}
	if req.MyRating > 0 {
		a.MyRating = req.MyRating
	}

	var err error
	if a.AirDate, err = parseOptionalDate(req.AirDate, a.AirDate); err != nil {
		return err
	}
	if a.WatchDate, err = parseOptionalDate(req.WatchDate, a.WatchDate); err != nil {
		return err
	}
	return nil
}

func parseOptionalDate(raw string, current *time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return current, nil
	}
	t, err := time.ParseInLocation(dateLayout, normalizeAirDate(raw), time.Local)
	if err != nil {
		return nil, fmt.Errorf("%w: 日期格式应为 %s", ErrInvalidParam, dateLayout)
	}
	return &t, nil
}
