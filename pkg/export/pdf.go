package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-pdf/fpdf"
)

// A4 页面参数，单位 mm
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	pageMargin   = 15.0
	contentWidth = pageWidth - 2*pageMargin
	pageBudget   = pageHeight - 2*pageMargin
	ptToMM       = 0.3528
	lineSpacing  = 1.4
	quoteIndent  = 5.0
	listIndent   = 4.0
)

type blockKind string

const (
	kindTitle      blockKind = "title"
	kindMeta       blockKind = "meta"
	kindHeading    blockKind = "heading"
	kindParagraph  blockKind = "p"
	kindListItem   blockKind = "li"
	kindCode       blockKind = "pre"
	kindBlockquote blockKind = "blockquote"
	kindRule       blockKind = "hr"
)

// block 文档中的一个块级元素
type block struct {
	kind  blockKind
	level int
	text  string
}

// measuredBlock 已按字体与宽度折行的块
type measuredBlock struct {
	block
	lines      []string
	lineHeight float64
	spaceAfter float64
}

func (m *measuredBlock) height() float64 {
	if m.kind == kindRule {
		return m.spaceAfter
	}
	return float64(len(m.lines))*m.lineHeight + m.spaceAfter
}

// chunk 落在同一页上的块片段
type chunk struct {
	block *measuredBlock
	lines []string
}

// extractBlocks 从 HTML 中提取块级元素，图片被忽略
func extractBlocks(htmlBody string) ([]block, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return nil, fmt.Errorf("解析 HTML 文档失败: %w", err)
	}

	var blocks []block
	doc.Find("h1,h2,h3,h4,h5,h6,p,li,pre,blockquote,hr").Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered("pre,blockquote,li").Length() > 0 {
			return
		}
		tag := goquery.NodeName(s)
		if tag == "hr" {
			blocks = append(blocks, block{kind: kindRule})
			return
		}

		text := s.Text()
		if tag != "pre" {
			text = strings.Join(strings.Fields(text), " ")
		} else {
			text = strings.TrimRight(text, "\n")
		}
		if strings.TrimSpace(text) == "" {
			return
		}

		switch tag {
		case "p":
			blocks = append(blocks, block{kind: kindParagraph, text: text})
		case "li":
			blocks = append(blocks, block{kind: kindListItem, text: text})
		case "pre":
			blocks = append(blocks, block{kind: kindCode, text: text})
		case "blockquote":
			blocks = append(blocks, block{kind: kindBlockquote, text: text})
		default:
			level, _ := strconv.Atoi(tag[1:])
			blocks = append(blocks, block{kind: kindHeading, level: level, text: text})
		}
	})
	return blocks, nil
}

// paginate 按页面高度预算分页，超过一页的块按行拆分
func paginate(blocks []*measuredBlock, budget float64) [][]chunk {
	var pages [][]chunk
	var current []chunk
	used := 0.0

	newPage := func() {
		if len(current) > 0 {
			pages = append(pages, current)
		}
		current = nil
		used = 0
	}

	for _, m := range blocks {
		h := m.height()
		if used+h <= budget {
			current = append(current, chunk{block: m, lines: m.lines})
			used += h
			continue
		}
		if h <= budget || m.kind == kindRule {
			newPage()
			current = append(current, chunk{block: m, lines: m.lines})
			used = h
			continue
		}

		rest := m.lines
		for len(rest) > 0 {
			n := int(math.Floor((budget - used) / m.lineHeight))
			if n <= 0 {
				newPage()
				continue
			}
			if n > len(rest) {
				n = len(rest)
			}
			current = append(current, chunk{block: m, lines: rest[:n]})
			used += float64(n) * m.lineHeight
			rest = rest[n:]
			if len(rest) > 0 {
				newPage()
			}
		}
		used += m.spaceAfter
	}
	if len(current) > 0 {
		pages = append(pages, current)
	}
	return pages
}

// pdfStyle 块的字体样式
type pdfStyle struct {
	family string
	style  string
	size   float64
	indent float64
	gray   int
}

// pdfWriter 持有字体选择与字符转换
type pdfWriter struct {
	pdf       *fpdf.Fpdf
	family    string
	mono      string
	translate func(string) string
	unicode   bool
}

func newPDFWriter(fontPath string) *pdfWriter {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)

	w := &pdfWriter{pdf: pdf}
	if fontPath != "" {
		pdf.AddUTF8Font("content", "", fontPath)
		pdf.AddUTF8Font("content", "B", fontPath)
		w.family, w.mono = "content", "content"
		w.translate = func(s string) string { return s }
		w.unicode = true
	} else {
		w.family, w.mono = "Helvetica", "Courier"
		w.translate = pdf.UnicodeTranslatorFromDescriptor("")
	}
	return w
}

func (w *pdfWriter) styleFor(b block) pdfStyle {
	switch b.kind {
	case kindTitle:
		return pdfStyle{family: w.family, style: "B", size: 20}
	case kindMeta:
		return pdfStyle{family: w.family, size: 10, gray: 120}
	case kindHeading:
		size := 12.0
		switch b.level {
		case 1:
			size = 18
		case 2:
			size = 16
		case 3:
			size = 14
		}
		return pdfStyle{family: w.family, style: "B", size: size}
	case kindListItem:
		return pdfStyle{family: w.family, size: 11, indent: listIndent}
	case kindCode:
		return pdfStyle{family: w.mono, size: 9, indent: 2}
	case kindBlockquote:
		return pdfStyle{family: w.family, size: 11, indent: quoteIndent, gray: 100}
	default:
		return pdfStyle{family: w.family, size: 11}
	}
}

func (w *pdfWriter) measure(b block) *measuredBlock {
	st := w.styleFor(b)
	m := &measuredBlock{block: b, lineHeight: st.size * ptToMM * lineSpacing, spaceAfter: 3}
	if b.kind == kindRule {
		m.spaceAfter = 6
		return m
	}
	if b.kind == kindMeta {
		m.spaceAfter = 1
	}

	w.pdf.SetFont(st.family, st.style, st.size)
	text := b.text
	if b.kind == kindListItem {
		text = "- " + text
	}
	for _, para := range strings.Split(w.translate(text), "\n") {
		if para == "" {
			m.lines = append(m.lines, "")
			continue
		}
		m.lines = append(m.lines, w.pdf.SplitText(para, contentWidth-st.indent)...)
	}
	return m
}

func (w *pdfWriter) render(pages [][]chunk) {
	for _, page := range pages {
		w.pdf.AddPage()
		y := pageMargin
		for _, c := range page {
			if c.block.kind == kindRule {
				w.pdf.SetDrawColor(200, 200, 200)
				w.pdf.Line(pageMargin, y+c.block.spaceAfter/2, pageMargin+contentWidth, y+c.block.spaceAfter/2)
				y += c.block.spaceAfter
				continue
			}
			st := w.styleFor(c.block.block)
			w.pdf.SetFont(st.family, st.style, st.size)
			w.pdf.SetTextColor(st.gray, st.gray, st.gray)
			for _, line := range c.lines {
				w.pdf.SetXY(pageMargin+st.indent, y)
				w.pdf.CellFormat(contentWidth-st.indent, c.block.lineHeight, line, "", 0, "L", false, 0, "")
				y += c.block.lineHeight
			}
			y += c.block.spaceAfter
		}
	}
}

// headerBlocks 标题与元信息
func (w *pdfWriter) headerBlocks(a *Article) []block {
	labels := [4]string{"Author: ", "Published: ", "Views: ", "Likes: "}
	if w.unicode {
		labels = [4]string{"作者：", "发布时间：", "阅读量：", "点赞数："}
	}
	return []block{
		{kind: kindTitle, text: a.Title},
		{kind: kindMeta, text: labels[0] + a.author()},
		{kind: kindMeta, text: labels[1] + a.publishDate()},
		{kind: kindMeta, text: labels[2] + strconv.FormatInt(a.ViewCount, 10) + "    " + labels[3] + strconv.FormatInt(a.LikeCount, 10)},
		{kind: kindRule},
	}
}

func (e *Exporter) writePDF(out io.Writer, a *Article) error {
	w := newPDFWriter(e.opts.PDFFont)

	blocks := w.headerBlocks(a)
	if strings.TrimSpace(a.Content) != "" {
		body, err := RenderHTML(a.Content)
		if err != nil {
			return err
		}
		content, err := extractBlocks(body)
		if err != nil {
			return err
		}
		blocks = append(blocks, content...)
	}

	measured := make([]*measuredBlock, 0, len(blocks))
	for _, b := range blocks {
		measured = append(measured, w.measure(b))
		if w.pdf.Err() {
			return fmt.Errorf("生成 PDF 失败: %w", w.pdf.Error())
		}
	}

	w.render(paginate(measured, pageBudget))
	if w.pdf.Err() {
		return fmt.Errorf("生成 PDF 失败: %w", w.pdf.Error())
	}
	return w.pdf.Output(out)
}
