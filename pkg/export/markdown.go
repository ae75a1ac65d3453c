package export

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// NormalizeContent 将富文本编辑器保存的HTML正文转换为Markdown，Markdown原样返回
func NormalizeContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "<") {
		return content, nil
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(trimmed)
	if err != nil {
		return "", fmt.Errorf("HTML 转 Markdown 失败: %w", err)
	}
	return markdown, nil
}

// ToMarkdown 生成带元信息头的 Markdown 文档，图片被移除
func ToMarkdown(a *Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n---\n\n", a.Title)
	fmt.Fprintf(&b, "**作者:** %s  \n", a.author())
	fmt.Fprintf(&b, "**发布时间:** %s  \n", a.publishDate())
	fmt.Fprintf(&b, "**阅读量:** %d  \n", a.ViewCount)
	fmt.Fprintf(&b, "**点赞数:** %d\n", a.LikeCount)
	if len(a.Tags) > 0 {
		quoted := make([]string, len(a.Tags))
		for i, tag := range a.Tags {
			quoted[i] = "`" + tag + "`"
		}
		fmt.Fprintf(&b, "\n**标签:** %s\n", strings.Join(quoted, " "))
	}
	b.WriteString("\n---\n\n")
	b.WriteString(StripImages(a.Content))
	b.WriteString("\n")
	return b.String()
}

// ToText 生成纯文本文档
func ToText(a *Article) string {
	rule := strings.Repeat("=", 50)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n%s\n\n", a.Title, rule)
	fmt.Fprintf(&b, "作者: %s\n", a.author())
	fmt.Fprintf(&b, "发布时间: %s\n", a.publishDate())
	fmt.Fprintf(&b, "阅读量: %d\n", a.ViewCount)
	fmt.Fprintf(&b, "点赞数: %d\n", a.LikeCount)
	fmt.Fprintf(&b, "%s\n\n", rule)
	b.WriteString(StripImages(a.Content))
	b.WriteString("\n")
	return b.String()
}
