package service

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/nsxzhou1114/blog-platform/internal/config"
	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"golang.org/x/time/rate"
)

var (
	bangumiURLPattern = regexp.MustCompile(`^https://(bgm\.tv|bangumi\.tv|chii\.(tv|in))/subject/(\d+)`)
	episodeDigits     = regexp.MustCompile(`\d+`)
	adaptationTag     = regexp.MustCompile(`^(.+)改$`)
	multiSpace        = regexp.MustCompile(`\s{4}`)
)

// ParseBangumiURL 校验条目地址并返回条目ID
func ParseBangumiURL(rawURL string) (string, error) {
	m := bangumiURLPattern.FindStringSubmatch(strings.TrimSpace(rawURL))
	if m == nil {
		return "", ErrInvalidAnimeURL
	}
	return m[3], nil
}

// AnimeCrawler 抓取 bangumi 条目页面
type AnimeCrawler struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewAnimeCrawler 创建抓取器，按配置限速
func NewAnimeCrawler(cfg config.CrawlerConfig) *AnimeCrawler {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}
	return &AnimeCrawler{client: client, limiter: rate.NewLimiter(limit, 1)}
}

// Fetch 抓取并解析条目页面
func (c *AnimeCrawler) Fetch(ctx context.Context, pageURL, uid string) (*dto.AnimeRequest, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrawlFailed, err)
	}

	resp, err := c.client.R().SetContext(ctx).SetDoNotParseResponse(true).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrawlFailed, err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("%w: 状态码 %d", ErrCrawlFailed, resp.StatusCode())
	}

	anime, err := ParseBangumiPage(body)
	if err != nil {
		return nil, err
	}
	anime.UID = uid
	return anime, nil
}

// ParseBangumiPage 从条目页面提取番剧信息
func ParseBangumiPage(r io.Reader) (*dto.AnimeRequest, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: 解析页面失败: %v", ErrCrawlFailed, err)
	}

	a := &dto.AnimeRequest{MediaSource: "bangumi"}

	keywords := strings.Split(doc.Find("meta[name='keywords']").AttrOr("content", ""), ",")
	a.CnName = strings.TrimSpace(keywords[0])
	if a.CnName == "" {
		a.CnName = "未知"
	}
	a.OriginalTitle = a.CnName
	if len(keywords) > 1 && strings.TrimSpace(keywords[1]) != "" {
		a.OriginalTitle = strings.TrimSpace(keywords[1])
	}

	cover := doc.Find(".infobox a.cover").AttrOr("href", "")
	if strings.HasPrefix(cover, "//") {
		cover = "https:" + cover
	}
	a.CoverURL = cover

	a.Plot = parsePlot(doc)
	a.Rating = parseRating(doc.Find(`span[property="v:average"]`).Text())

	info := infoboxReader{doc: doc}
	a.OriginalAuthor = info.value("原作:")
	a.Director = info.value("导演:")
	a.Writer = info.value("脚本:")
	a.Studio = info.value("动画制作:")
	a.Website = info.item("官方网站:").Find("a").First().AttrOr("href", "")

	episode := info.episodes()
	if episode == "" || episode == "0" {
		a.AnimeClass = model.AnimeClassFilm
		a.Episodes = "1话"
	} else {
		a.AnimeClass = model.AnimeClassTV
		a.Episodes = episode + "话"
	}

	airDate := info.text("放送开始:")
	if airDate == "" {
		airDate = info.text("上映年度:")
	}
	a.AirDate = normalizeAirDate(airDate)

	var tags []string
	doc.Find(".inner a span").Each(func(_ int, s *goquery.Selection) {
		tags = append(tags, strings.TrimSpace(s.Text()))
	})
	if len(tags) > 0 {
		a.Tags = strings.Join(tags[:min(3, len(tags))], ",")
	}
	a.Country = inferCountry(tags)
	a.Source = inferSource(tags)

	var aliases []string
	doc.Find("ul li.sub_section, ul li.sub").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(strings.Replace(s.Text(), "别名: ", "", 1)); text != "" {
			aliases = append(aliases, text)
		}
	})
	switch {
	case len(aliases) > 0:
		a.Aliases = strings.Join(aliases, ", ")
	case a.OriginalTitle != a.CnName:
		a.Aliases = a.OriginalTitle
	}

	var cast []string
	doc.Find("#browserItemList .item").Each(func(_ int, s *goquery.Selection) {
		character := strings.TrimSpace(s.Find(".title a").Text())
		cv := strings.TrimSpace(s.Find(".badge_actor a").Text())
		role := strings.TrimSpace(s.Find(".badge_job_tip").Text())
		if character != "" && cv != "" {
			cast = append(cast, fmt.Sprintf("%s (%s) cv: %s", character, role, cv))
		}
	})
	a.Cast = strings.Join(cast, "\n")

	return a, nil
}

func parsePlot(doc *goquery.Document) string {
	plot := strings.TrimSpace(doc.Find("span[property='v:summary']").Text())
	if plot == "" {
		return strings.TrimSpace(doc.Find("#subject_summary").Text())
	}
	plot = strings.TrimSpace(strings.Replace(plot, "(展开全部)", "", 1))
	plot = multiSpace.ReplaceAllString(plot, "\n")

	var lines []string
	for _, line := range strings.Split(plot, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// infoboxReader 读取 #infobox 中以标签开头的条目
type infoboxReader struct {
	doc *goquery.Document
}

func (r infoboxReader) item(label string) *goquery.Selection {
	return r.doc.Find("#infobox li").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.TrimSpace(s.Find(".tip").Text()) == label
	}).First()
}

// value 优先取条目中第一个链接的文字
func (r infoboxReader) value(label string) string {
	li := r.item(label)
	if li.Length() == 0 {
		return ""
	}
	if link := li.Find("a").First(); link.Length() > 0 {
		return strings.TrimSpace(link.Text())
	}
	return strings.TrimSpace(strings.Replace(li.Text(), label, "", 1))
}

func (r infoboxReader) text(label string) string {
	li := r.item(label)
	if li.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(strings.Replace(li.Text(), label, "", 1))
}

func (r infoboxReader) episodes() string {
	li := r.item("话数:")
	if li.Length() == 0 {
		return ""
	}
	return strings.Join(episodeDigits.FindAllString(strings.Replace(li.Text(), "话数:", "", 1), -1), "")
}

var airDateLayouts = []string{"2006年1月2日", "2006-01-02", "2006/1/2", "2006年1月", "2006-01", "2006年", "2006"}

// normalizeAirDate 统一为 2006-01-02，无法识别时原样返回
func normalizeAirDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range airDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(dateLayout)
		}
	}
	return raw
}

func inferCountry(tags []string) string {
	for _, country := range []string{"中国", "日本"} {
		for _, t := range tags {
			if strings.Contains(t, country) {
				return country
			}
		}
	}
	return ""
}

func inferSource(tags []string) string {
	for _, t := range tags {
		if t == "原创" {
			return "原创"
		}
	}
	for _, t := range tags {
		if m := adaptationTag.FindStringSubmatch(t); m != nil {
			if m[1] == "漫" {
				return "漫画"
			}
			return m[1]
		}
	}
	return ""
}

// parseRating 解析评分，缺失或非法时记为0
func parseRating(text string) float64 {
	rating, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || !(rating >= 0 && rating <= 10) {
		return 0
	}
	return rating
}
