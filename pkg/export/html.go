package export

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"
)

// ErrEmptyContent 内容为空
var ErrEmptyContent = errors.New("内容不能为空")

// RenderHTML 将 Markdown 渲染为安全的 HTML 片段
func RenderHTML(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}

	unsafe := blackfriday.MarkdownCommon([]byte(content))
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(unsafe)))
	if err != nil {
		return "", fmt.Errorf("解析 HTML 文档失败: %w", err)
	}
	doc.Find("script").Remove()

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("生成 HTML 失败: %w", err)
	}
	return bluemonday.UGCPolicy().Sanitize(body), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: 'Microsoft YaHei', Arial, sans-serif; max-width: 800px; margin: 40px auto; color: #262626; line-height: 1.8; }
h1.title { font-size: 32px; border-bottom: 2px solid #1890ff; padding-bottom: 16px; }
.meta { color: #8c8c8c; font-size: 14px; background: #f5f5f5; border-radius: 8px; padding: 16px; }
.meta p { margin: 4px 0; }
pre { background: #f6f8fa; padding: 12px; overflow-x: auto; }
img { max-width: 100%%; }
</style>
</head>
<body>
<h1 class="title">%s</h1>
<div class="meta">
<p><strong>作者：</strong>%s</p>
<p><strong>发布时间：</strong>%s</p>
<p><strong>阅读量：</strong>%d | <strong>点赞数：</strong>%d</p>
</div>
%s<div class="article-content">
%s
</div>
</body>
</html>
`

// ToHTMLDocument 生成独立的 HTML 文档，保留图片
func ToHTMLDocument(a *Article) (string, error) {
	body := ""
	if strings.TrimSpace(a.Content) != "" {
		var err error
		body, err = RenderHTML(a.Content)
		if err != nil {
			return "", err
		}
	}

	cover := ""
	if a.CoverImage != "" {
		cover = fmt.Sprintf("<div class=\"cover\"><img src=\"%s\" alt=\"封面图片\"></div>\n", html.EscapeString(a.CoverImage))
	}

	title := html.EscapeString(a.Title)
	return fmt.Sprintf(htmlTemplate,
		title, title,
		html.EscapeString(a.author()),
		html.EscapeString(a.publishDate()),
		a.ViewCount, a.LikeCount,
		cover, body,
	), nil
}
