package model

// 评论状态
const (
	CommentStatusApproved = "approved"
	CommentStatusPending  = "pending"
	CommentStatusDeleted  = "deleted"
)

// Comment 评论模型，两级结构：顶层评论与其回复
type Comment struct {
	Base
	Content   string `gorm:"type:text;not null" json:"content"`
	ArticleID uint   `gorm:"not null;index" json:"article_id"`
	UserID    uint   `gorm:"not null;index" json:"user_id"`
	ParentID  *uint  `gorm:"index" json:"parent_id"`
	Status    string `gorm:"type:varchar(20);not null;default:'approved';index" json:"status"` // 状态: approved pending deleted
	IP        string `gorm:"type:varchar(64)" json:"-"`
	Location  string `gorm:"type:varchar(100)" json:"location"`

	// 关联
	User    User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Replies []Comment `gorm:"foreignKey:ParentID" json:"replies,omitempty"`
}

// TableName 指定表名
func (Comment) TableName() string {
	return "comments"
}
