package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleArticle() *Article {
	published := time.Date(2024, 3, 5, 9, 30, 0, 0, time.Local)
	return &Article{
		Title:       "Go 并发实践",
		AuthorName:  "nsxzhou",
		Content:     "## 简介\n\n![图](https://example.com/a.png)正文内容\n\n```go\nfmt.Println(1)\n```\n",
		Tags:        []string{"Go", "并发"},
		ViewCount:   12,
		LikeCount:   3,
		PublishedAt: &published,
		CreatedAt:   published.Add(-time.Hour),
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"md": Markdown, "Markdown": Markdown, "txt": Text, "html": HTML, " pdf ": PDF} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestToMarkdown(t *testing.T) {
	out := ToMarkdown(sampleArticle())

	assert.True(t, strings.HasPrefix(out, "# Go 并发实践\n\n---\n\n**作者:** nsxzhou  \n"))
	assert.Contains(t, out, "**发布时间:** 2024/3/5 09:30:00  \n")
	assert.Contains(t, out, "**阅读量:** 12  \n**点赞数:** 3\n")
	assert.Contains(t, out, "**标签:** `Go` `并发`")
	assert.Contains(t, out, "正文内容")
	assert.NotContains(t, out, "example.com/a.png")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestToMarkdownAnonymousUsesCreatedAt(t *testing.T) {
	a := sampleArticle()
	a.AuthorName = ""
	a.PublishedAt = nil
	a.Tags = nil

	out := ToMarkdown(a)
	assert.Contains(t, out, "**作者:** 匿名  \n")
	assert.Contains(t, out, "**发布时间:** 2024/3/5 08:30:00  \n")
	assert.NotContains(t, out, "**标签:**")
}

func TestToText(t *testing.T) {
	out := ToText(sampleArticle())
	rule := strings.Repeat("=", 50)

	assert.True(t, strings.HasPrefix(out, "Go 并发实践\n\n"+rule+"\n\n作者: nsxzhou\n"))
	assert.Contains(t, out, "阅读量: 12\n点赞数: 3\n"+rule+"\n\n")
	assert.NotContains(t, out, "![图]")
}

func TestNormalizeContent(t *testing.T) {
	md, err := NormalizeContent("<h2>标题</h2><p>一段<strong>加粗</strong>文字</p>")
	require.NoError(t, err)
	assert.Contains(t, md, "## 标题")
	assert.Contains(t, md, "**加粗**")

	plain, err := NormalizeContent("# 已经是 Markdown")
	require.NoError(t, err)
	assert.Equal(t, "# 已经是 Markdown", plain)
}

func TestRenderHTMLRemovesScripts(t *testing.T) {
	out, err := RenderHTML("# 标题\n\n<script>alert(1)</script>\n\n正文")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>标题</h1>")
	assert.NotContains(t, out, "script")

	_, err = RenderHTML("   ")
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestToHTMLDocumentKeepsImages(t *testing.T) {
	doc, err := ToHTMLDocument(sampleArticle())
	require.NoError(t, err)
	assert.Contains(t, doc, "<title>Go 并发实践</title>")
	assert.Contains(t, doc, "https://example.com/a.png")
	assert.Contains(t, doc, "nsxzhou")
}

func TestExtractBlocks(t *testing.T) {
	html := `<h2>小节</h2><p>第一段</p><ul><li><p>项目一</p></li><li>项目二</li></ul>
<blockquote><p>引用</p></blockquote><hr><pre><code>line1
line2
</code></pre><p><img src="x.png"></p>`

	blocks, err := extractBlocks(html)
	require.NoError(t, err)

	kinds := make([]blockKind, len(blocks))
	for i, b := range blocks {
		kinds[i] = b.kind
	}
	assert.Equal(t, []blockKind{kindHeading, kindParagraph, kindListItem, kindListItem, kindBlockquote, kindRule, kindCode}, kinds)
	assert.Equal(t, 2, blocks[0].level)
	assert.Equal(t, "line1\nline2", blocks[6].text)
}

func lines(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = "x"
	}
	return out
}

func TestPaginate(t *testing.T) {
	t.Run("fits on one page", func(t *testing.T) {
		blocks := []*measuredBlock{
			{block: block{kind: kindParagraph}, lines: lines(3), lineHeight: 5, spaceAfter: 2},
			{block: block{kind: kindParagraph}, lines: lines(2), lineHeight: 5, spaceAfter: 2},
		}
		pages := paginate(blocks, 100)
		require.Len(t, pages, 1)
		assert.Len(t, pages[0], 2)
	})

	t.Run("moves overflowing block to next page", func(t *testing.T) {
		blocks := []*measuredBlock{
			{block: block{kind: kindParagraph}, lines: lines(15), lineHeight: 5, spaceAfter: 2},
			{block: block{kind: kindParagraph}, lines: lines(6), lineHeight: 5, spaceAfter: 2},
		}
		pages := paginate(blocks, 100)
		require.Len(t, pages, 2)
		assert.Len(t, pages[1][0].lines, 6)
	})

	t.Run("splits block taller than a page", func(t *testing.T) {
		blocks := []*measuredBlock{
			{block: block{kind: kindCode}, lines: lines(45), lineHeight: 5, spaceAfter: 2},
		}
		pages := paginate(blocks, 100)
		require.Len(t, pages, 3)
		assert.Len(t, pages[0][0].lines, 20)
		assert.Len(t, pages[1][0].lines, 20)
		assert.Len(t, pages[2][0].lines, 5)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, paginate(nil, 100))
	})
}

func TestExportPDF(t *testing.T) {
	a := sampleArticle()
	a.Title = "Concurrency in Go"
	a.Content = strings.Repeat("A long paragraph about goroutines and channels.\n\n", 200)

	var buf bytes.Buffer
	require.NoError(t, New(Options{}).Export(&buf, a, PDF))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestExportMarkdownNormalizesHTML(t *testing.T) {
	a := sampleArticle()
	a.Content = "<p>来自<em>编辑器</em></p>"

	var buf bytes.Buffer
	require.NoError(t, New(Options{}).Export(&buf, a, Markdown))
	assert.Contains(t, buf.String(), "来自_编辑器_")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "a_b.md", Filename("a/b", Markdown))
	assert.Equal(t, "article.pdf", Filename("  ", PDF))
}
