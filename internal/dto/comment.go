package dto

import "time"

// CommentCreateRequest 创建评论请求
type CommentCreateRequest struct {
	Content  string `json:"content" binding:"required,min=1,max=1000"`
	ParentID *uint  `json:"parent_id"`
}

// CommentQueryRequest 待审核评论查询
type CommentQueryRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CommentResponse 评论响应
type CommentResponse struct {
	ID         uint              `json:"id"`
	Content    string            `json:"content"`
	ArticleID  uint              `json:"article_id"`
	UserID     uint              `json:"user_id"`
	UserName   string            `json:"user_name"`
	UserAvatar string            `json:"user_avatar"`
	ParentID   *uint             `json:"parent_id"`
	Status     string            `json:"status"`
	Location   string            `json:"location"`
	CreatedAt  time.Time         `json:"created_at"`
	Replies    []CommentResponse `json:"replies,omitempty"`
}

// CommentListResponse 评论列表
type CommentListResponse struct {
	List     []CommentResponse `json:"list"`
	Total    int64             `json:"total"`
	Page     int               `json:"-"`
	PageSize int               `json:"-"`
}
