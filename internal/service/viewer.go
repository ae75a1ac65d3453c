package service

import "github.com/nsxzhou1114/blog-platform/internal/model"

// Viewer 当前请求的访问者，未登录时 UserID 为 0
type Viewer struct {
	UserID uint
	Role   string
}

// IsAdmin 是否管理员
func (v Viewer) IsAdmin() bool {
	return v.Role == model.RoleAdmin
}

// CanManage 是否可以管理指定作者的内容
func (v Viewer) CanManage(authorID uint) bool {
	return v.IsAdmin() || (v.UserID != 0 && v.UserID == authorID)
}
