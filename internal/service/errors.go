package service

import "errors"

// 业务错误，控制器通过 errors.Is 映射为HTTP状态码
var (
	ErrInvalidParam     = errors.New("参数错误")
	ErrPermissionDenied = errors.New("没有权限执行此操作")

	ErrUserNotFound       = errors.New("用户不存在")
	ErrUsernameExists     = errors.New("用户名已存在")
	ErrEmailExists        = errors.New("邮箱已存在")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrCaptchaInvalid     = errors.New("验证码错误")

	ErrArticleNotFound = errors.New("文章不存在")
	ErrInvalidTagIDs   = errors.New("存在无效的标签ID")

	ErrTagNotFound = errors.New("标签不存在")
	ErrTagExists   = errors.New("标签名已存在")

	ErrCommentNotFound       = errors.New("评论不存在")
	ErrParentCommentNotFound = errors.New("父评论不存在")
	ErrCommentEmpty          = errors.New("评论内容不能为空")

	ErrAnimeNotFound   = errors.New("番剧不存在")
	ErrAnimeExists     = errors.New("该番剧已存在")
	ErrInvalidAnimeURL = errors.New("无效的 Bangumi URL，格式应为: https://bgm.tv/subject/xxxxx")
	ErrCrawlFailed     = errors.New("抓取番剧数据失败")

	ErrFileTooLarge        = errors.New("文件大小超出限制")
	ErrUnsupportedFileType = errors.New("不支持的文件类型")
	ErrInvalidFilename     = errors.New("无效的文件名")
	ErrFileNotFound        = errors.New("文件不存在")
)
