package model

import (
	"fmt"
	"time"
)

// 文章状态
const (
	ArticleStatusDraft     = "draft"
	ArticleStatusPublished = "published"
	ArticleStatusDeleted   = "deleted"
)

// Article 文章模型
type Article struct {
	Base
	Title       string     `gorm:"type:varchar(200);not null" json:"title"`
	Content     string     `gorm:"type:longtext" json:"content"`
	Summary     string     `gorm:"type:varchar(500)" json:"summary"`
	CoverImage  string     `gorm:"type:varchar(255)" json:"cover_image"`
	AuthorID    uint       `gorm:"not null;index" json:"author_id"`
	Status      string     `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"` // 状态: draft published deleted
	ViewCount   int64      `gorm:"not null;default:0" json:"view_count"`
	LikeCount   int64      `gorm:"not null;default:0" json:"like_count"`
	PublishedAt *time.Time `gorm:"index" json:"published_at"`

	// 关联
	Author User  `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Tags   []Tag `gorm:"many2many:article_tags;" json:"tags,omitempty"`
}

// TableName 指定表名
func (Article) TableName() string {
	return "articles"
}

// IsPublished 是否已发布
func (a *Article) IsPublished() bool {
	return a.Status == ArticleStatusPublished
}

// ToSearchDocument 转换为搜索文档
func (a *Article) ToSearchDocument() *ESArticle {
	tags := make([]string, 0, len(a.Tags))
	for _, tag := range a.Tags {
		tags = append(tags, tag.Name)
	}

	doc := &ESArticle{
		ID:         fmt.Sprintf("article_%d", a.ID),
		ArticleID:  a.ID,
		Title:      a.Title,
		Content:    a.Content,
		Summary:    a.Summary,
		AuthorID:   a.AuthorID,
		AuthorName: a.Author.Username,
		Tags:       tags,
		Status:     a.Status,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
	if a.PublishedAt != nil {
		doc.PublishedAt = *a.PublishedAt
	}
	return doc
}
