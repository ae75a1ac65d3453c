package dto

// TagInfo 文章中的标签
type TagInfo struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// TagCreateRequest 创建标签请求
type TagCreateRequest struct {
	Name  string `json:"name" binding:"required,max=50"`
	Color string `json:"color" binding:"omitempty,tagcolor"`
}

// TagUpdateRequest 更新标签请求
type TagUpdateRequest struct {
	Name  *string `json:"name" binding:"omitempty,min=1,max=50"`
	Color *string `json:"color" binding:"omitempty,tagcolor"`
}

// TagListRequest 标签列表请求
type TagListRequest struct {
	WithCount bool `form:"with_count"`
}

// TagResponse 标签响应
type TagResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Color        string `json:"color"`
	ArticleCount *int64 `json:"article_count,omitempty"`
}
