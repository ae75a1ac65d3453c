// Package export renders articles as downloadable Markdown, plain text, HTML or PDF documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// Format 导出格式
type Format string

const (
	Markdown Format = "markdown"
	Text     Format = "text"
	HTML     Format = "html"
	PDF      Format = "pdf"
)

// ErrUnsupportedFormat 不支持的导出格式
var ErrUnsupportedFormat = errors.New("不支持的导出格式")

// ParseFormat 解析导出格式，接受常见别名
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "md", "markdown":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	case "html", "htm":
		return HTML, nil
	case "pdf":
		return PDF, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
}

// Extension 文件扩展名
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return ".md"
	case Text:
		return ".txt"
	case HTML:
		return ".html"
	default:
		return ".pdf"
	}
}

// ContentType 响应类型
func (f Format) ContentType() string {
	switch f {
	case Markdown:
		return "text/markdown; charset=utf-8"
	case Text:
		return "text/plain; charset=utf-8"
	case HTML:
		return "text/html; charset=utf-8"
	default:
		return "application/pdf"
	}
}

// Article 导出所需的文章信息
type Article struct {
	Title       string
	AuthorName  string
	Content     string
	CoverImage  string
	Tags        []string
	ViewCount   int64
	LikeCount   int64
	PublishedAt *time.Time
	CreatedAt   time.Time
}

// author 作者名，缺省为匿名
func (a *Article) author() string {
	if strings.TrimSpace(a.AuthorName) == "" {
		return "匿名"
	}
	return a.AuthorName
}

// publishDate 发布时间，未发布时使用创建时间
func (a *Article) publishDate() string {
	t := a.CreatedAt
	if a.PublishedAt != nil {
		t = *a.PublishedAt
	}
	return t.Format("2006/1/2 15:04:05")
}

var imagePattern = regexp.MustCompile(`!\[.*?\]\(.*?\)`)

// StripImages 移除 Markdown 图片
func StripImages(content string) string {
	return imagePattern.ReplaceAllString(content, "")
}

// Options 导出选项
type Options struct {
	// PDFFont UTF-8 TTF 字体路径，为空时使用内置字体（不支持中日韩字符）
	PDFFont string
}

// Exporter 文章导出器
type Exporter struct {
	opts Options
}

// New 创建导出器
func New(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Export 以指定格式写出文章
func (e *Exporter) Export(w io.Writer, a *Article, f Format) error {
	content, err := NormalizeContent(a.Content)
	if err != nil {
		return err
	}
	normalized := *a
	normalized.Content = content

	switch f {
	case Markdown:
		_, err = io.WriteString(w, ToMarkdown(&normalized))
	case Text:
		_, err = io.WriteString(w, ToText(&normalized))
	case HTML:
		var doc string
		doc, err = ToHTMLDocument(&normalized)
		if err == nil {
			_, err = io.WriteString(w, doc)
		}
	case PDF:
		err = e.writePDF(w, &normalized)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	return err
}

var unsafeFilenameChars = regexp.MustCompile(`[\\/:*?"<>|\x00-\x1f]+`)

// Filename 根据标题生成下载文件名
func Filename(title string, f Format) string {
	name := strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(title, "_"))
	if name == "" {
		name = "article"
	}
	if r := []rune(name); len(r) > 100 {
		name = string(r[:100])
	}
	return name + f.Extension()
}
