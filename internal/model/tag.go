package model

import "time"

// DefaultTagColor 标签默认颜色
const DefaultTagColor = "#1890ff"

// Tag 标签模型
type Tag struct {
	Base
	Name  string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	Color string `gorm:"type:varchar(20);not null;default:'#1890ff'" json:"color"`

	// 统计字段，仅查询时填充
	ArticleCount int64 `gorm:"->;-:migration" json:"article_count"`
}

// TableName 指定表名
func (Tag) TableName() string {
	return "tags"
}

// ArticleTag 文章-标签关联模型
type ArticleTag struct {
	ArticleID uint      `gorm:"primaryKey;autoIncrement:false" json:"article_id"`
	TagID     uint      `gorm:"primaryKey;autoIncrement:false;index" json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (ArticleTag) TableName() string {
	return "article_tags"
}
