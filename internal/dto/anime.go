package dto

import "github.com/nsxzhou1114/blog-platform/internal/model"

// AnimeQueryRequest 番剧列表查询
type AnimeQueryRequest struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Keyword    string `form:"keyword" binding:"omitempty,max=100"`
	AnimeClass string `form:"anime_class" binding:"omitempty,oneof=TV FILM OVA ONA"`
	Country    string `form:"country" binding:"omitempty,max=50"`
	Tag        string `form:"tag" binding:"omitempty,max=50"`
	SortBy     string `form:"sort_by" binding:"omitempty,oneof=air_date watch_date rating my_rating created_at"`
	Order      string `form:"order" binding:"omitempty,oneof=asc desc"`
}

// AnimeRequest 创建或更新番剧，日期格式 2006-01-02
type AnimeRequest struct {
	UID            string  `json:"uid" binding:"omitempty,max=32"`
	CnName         string  `json:"cn_name" binding:"omitempty,max=255"`
	OriginalTitle  string  `json:"original_title" binding:"omitempty,max=255"`
	Aliases        string  `json:"aliases"`
	CoverURL       string  `json:"cover_url" binding:"omitempty,max=500"`
	Plot           string  `json:"plot"`
	Tags           string  `json:"tags" binding:"omitempty,max=255"`
	Studio         string  `json:"studio" binding:"omitempty,max=255"`
	Source         string  `json:"source" binding:"omitempty,max=50"`
	OriginalAuthor string  `json:"original_author" binding:"omitempty,max=255"`
	Writer         string  `json:"writer" binding:"omitempty,max=255"`
	Director       string  `json:"director" binding:"omitempty,max=255"`
	AnimeClass     string  `json:"anime_class" binding:"omitempty,oneof=TV FILM OVA ONA"`
	Country        string  `json:"country" binding:"omitempty,max=50"`
	AirDate        string  `json:"air_date"`
	Episodes       string  `json:"episodes" binding:"omitempty,max=20"`
	Rating         float64 `json:"rating" binding:"omitempty,min=0,max=10"`
	MyRating       float64 `json:"my_rating" binding:"omitempty,min=0,max=10"`
	WatchDate      string  `json:"watch_date"`
	Website        string  `json:"website" binding:"omitempty,max=500"`
	Cast           string  `json:"cast"`
	MediaSource    string  `json:"media_source" binding:"omitempty,max=20"`
}

// AnimeCrawlRequest 抓取请求
type AnimeCrawlRequest struct {
	URL string `json:"url" binding:"required"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// AnimeListResponse 番剧列表
type AnimeListResponse struct {
	List       []model.Anime `json:"list"`
	Pagination Pagination    `json:"pagination"`
}

// AnimeStats 番剧统计
type AnimeStats struct {
	Total     int64   `json:"total"`
	TVCount   int64   `json:"tv_count"`
	FilmCount int64   `json:"film_count"`
	AvgRating float64 `json:"avg_rating"`
}
