package dto

import "time"

// ArticleCreateRequest 创建文章请求
type ArticleCreateRequest struct {
	Title      string   `json:"title" binding:"required,max=200"`
	Content    string   `json:"content" binding:"required"`
	Summary    string   `json:"summary" binding:"max=500"`
	CoverImage string   `json:"cover_image" binding:"max=255"`
	Status     string   `json:"status" binding:"omitempty,oneof=draft published"` // 默认草稿
	TagIDs     []uint   `json:"tag_ids" binding:"omitempty,dive,min=1"`
	Tags       []string `json:"tags" binding:"omitempty,dive,max=50"` // 标签名，不存在时自动创建
}

// ArticleUpdateRequest 更新文章请求，未提供的字段保持不变
type ArticleUpdateRequest struct {
	Title      *string  `json:"title" binding:"omitempty,min=1,max=200"`
	Content    *string  `json:"content"`
	Summary    *string  `json:"summary" binding:"omitempty,max=500"`
	CoverImage *string  `json:"cover_image" binding:"omitempty,max=255"`
	Status     *string  `json:"status" binding:"omitempty,oneof=draft published"`
	TagIDs     []uint   `json:"tag_ids" binding:"omitempty,dive,min=1"` // 非nil时替换标签
	Tags       []string `json:"tags" binding:"omitempty,dive,max=50"`
}

// ArticleQueryRequest 文章查询请求
type ArticleQueryRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=draft published deleted"`
	AuthorID uint   `form:"author_id"`
	TagID    uint   `form:"tag_id"`
	Keyword  string `form:"keyword" binding:"omitempty,max=100"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=published_at created_at updated_at view_count like_count title"`
	Order    string `form:"order" binding:"omitempty,oneof=asc desc"`
}

// ArticleListItem 文章列表项
type ArticleListItem struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Summary      string     `json:"summary"`
	CoverImage   string     `json:"cover_image"`
	AuthorID     uint       `json:"author_id"`
	AuthorName   string     `json:"author_name"`
	AuthorAvatar string     `json:"author_avatar"`
	Status       string     `json:"status"`
	ViewCount    int64      `json:"view_count"`
	LikeCount    int64      `json:"like_count"`
	Tags         []TagInfo  `json:"tags"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	PublishedAt  *time.Time `json:"published_at"`
}

// ArticleDetailResponse 文章详情
type ArticleDetailResponse struct {
	ArticleListItem
	Content string `json:"content"`
}

// ArticleListResponse 文章列表
type ArticleListResponse struct {
	Items    []ArticleListItem `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// ArticleLikeResponse 点赞结果
type ArticleLikeResponse struct {
	LikeCount int64 `json:"like_count"`
}

// ArticleExportRequest 导出请求
type ArticleExportRequest struct {
	Format string `form:"format"` // markdown text html pdf，默认 markdown
}
