package service

import (
	"context"
	"strings"
	"testing"

	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnimeService_CreateValidation(t *testing.T) {
	svc := NewAnimeService(newTestDB(t), nil, testLog)
	ctx := context.Background()

	_, err := svc.Create(ctx, &dto.AnimeRequest{UID: "1"})
	assert.ErrorIs(t, err, ErrInvalidParam)

	anime, err := svc.Create(ctx, &dto.AnimeRequest{UID: "1", CnName: "葬送的芙莉莲", AirDate: "2023年9月29日"})
	require.NoError(t, err)
	assert.Equal(t, model.AnimeClassTV, anime.AnimeClass)
	assert.Equal(t, "bangumi", anime.MediaSource)
	require.NotNil(t, anime.AirDate)
	assert.Equal(t, "2023-09-29", anime.AirDate.Format(dateLayout))

	_, err = svc.Create(ctx, &dto.AnimeRequest{UID: "1", CnName: "重复"})
	assert.ErrorIs(t, err, ErrAnimeExists)

	_, err = svc.Create(ctx, &dto.AnimeRequest{UID: "2", CnName: "坏日期", WatchDate: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestAnimeService_UpdateAndDelete(t *testing.T) {
	svc := NewAnimeService(newTestDB(t), nil, testLog)
	ctx := context.Background()

	first, err := svc.Create(ctx, &dto.AnimeRequest{UID: "1", CnName: "A"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &dto.AnimeRequest{UID: "2", CnName: "B"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, first.ID, &dto.AnimeRequest{UID: "2"})
	assert.ErrorIs(t, err, ErrAnimeExists)

	updated, err := svc.Update(ctx, first.ID, &dto.AnimeRequest{MyRating: 9.5, Studio: "MADHOUSE"})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.CnName)
	assert.Equal(t, 9.5, updated.MyRating)
	assert.Equal(t, "MADHOUSE", updated.Studio)

	require.NoError(t, svc.Delete(ctx, first.ID))
	assert.ErrorIs(t, svc.Delete(ctx, first.ID), ErrAnimeNotFound)
	_, err = svc.Get(ctx, first.ID)
	assert.ErrorIs(t, err, ErrAnimeNotFound)
}

func TestAnimeService_ListAndStats(t *testing.T) {
	svc := NewAnimeService(newTestDB(t), nil, testLog)
	ctx := context.Background()

	seed := []dto.AnimeRequest{
		{UID: "1", CnName: "孤独摇滚", AnimeClass: model.AnimeClassTV, Country: "日本", Tags: "音乐,日常", Rating: 8.9},
		{UID: "2", CnName: "你的名字", AnimeClass: model.AnimeClassFilm, Country: "日本", Tags: "爱情", Rating: 8.2},
		{UID: "3", CnName: "罗小黑战记", AnimeClass: model.AnimeClassFilm, Country: "中国", Aliases: "The Legend of Hei"},
	}
	for i := range seed {
		_, err := svc.Create(ctx, &seed[i])
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, &dto.AnimeQueryRequest{AnimeClass: model.AnimeClassFilm, PageSize: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Pagination.Total)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.Len(t, resp.List, 1)

	resp, err = svc.List(ctx, &dto.AnimeQueryRequest{Keyword: "Legend"})
	require.NoError(t, err)
	require.Len(t, resp.List, 1)
	assert.Equal(t, "罗小黑战记", resp.List[0].CnName)

	resp, err = svc.List(ctx, &dto.AnimeQueryRequest{Tag: "音乐", Country: "日本"})
	require.NoError(t, err)
	require.Len(t, resp.List, 1)
	assert.Equal(t, "孤独摇滚", resp.List[0].CnName)

	resp, err = svc.List(ctx, &dto.AnimeQueryRequest{SortBy: "rating", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, resp.List, 3)
	assert.Equal(t, "罗小黑战记", resp.List[0].CnName)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 1, stats.TVCount)
	assert.EqualValues(t, 2, stats.FilmCount)
	assert.InDelta(t, 8.55, stats.AvgRating, 0.001)
}

func TestAnimeService_CrawlRejectsBadURLAndExisting(t *testing.T) {
	svc := NewAnimeService(newTestDB(t), nil, testLog)
	ctx := context.Background()

	_, err := svc.Crawl(ctx, "https://example.com/subject/1")
	assert.ErrorIs(t, err, ErrInvalidAnimeURL)

	_, err = svc.Create(ctx, &dto.AnimeRequest{UID: "400602", CnName: "芙莉莲"})
	require.NoError(t, err)
	_, err = svc.Crawl(ctx, "https://bgm.tv/subject/400602")
	assert.ErrorIs(t, err, ErrAnimeExists)
}

func TestParseBangumiURL(t *testing.T) {
	cases := map[string]string{
		"https://bgm.tv/subject/400602":         "400602",
		"https://bangumi.tv/subject/12?foo=bar": "12",
		"https://chii.in/subject/7":             "7",
	}
	for raw, want := range cases {
		got, err := ParseBangumiURL(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}

	for _, raw := range []string{"http://bgm.tv/subject/1", "https://bgm.tv/person/1", "bgm.tv/subject/1"} {
		_, err := ParseBangumiURL(raw)
		assert.ErrorIs(t, err, ErrInvalidAnimeURL, raw)
	}
}

const bangumiFixture = `<html><head>
<meta name="keywords" content="葬送的芙莉莲,葬送のフリーレン,动画">
</head><body>
<div class="infobox"><a class="cover" href="//lain.bgm.tv/pic/cover/l/frieren.jpg">cover</a></div>
<ul id="infobox">
  <li><span class="tip">中文名: </span>葬送的芙莉莲</li>
  <li><span class="tip">话数: </span>28</li>
  <li><span class="tip">放送开始: </span>2023年9月29日</li>
  <li><span class="tip">原作: </span><a href="/person/1">山田钟人</a>・<a href="/person/2">阿部司</a></li>
  <li><span class="tip">导演: </span><a href="/person/3">斋藤圭一郎</a></li>
  <li><span class="tip">动画制作: </span><a href="/person/4">MADHOUSE</a></li>
  <li><span class="tip">官方网站: </span><a href="https://frieren-anime.jp/">https://frieren-anime.jp/</a></li>
  <ul><li class="sub_section">别名: Frieren: Beyond Journey's End</li></ul>
</ul>
<span property="v:summary">勇者一行人打倒了魔王。    精灵魔法使芙莉莲踏上了新的旅程。</span>
<span property="v:average">9.1</span>
<div class="subject_tag_section"><div class="inner">
  <a href="/anime/tag/1"><span>奇幻</span></a>
  <a href="/anime/tag/2"><span>漫改</span></a>
  <a href="/anime/tag/3"><span>日本</span></a>
  <a href="/anime/tag/4"><span>2023</span></a>
</div></div>
<ul id="browserItemList">
  <li class="item"><span class="title"><a>芙莉莲</a></span><span class="badge_job_tip">主角</span><span class="badge_actor"><a>种崎敦美</a></span></li>
</ul>
</body></html>`

func TestParseBangumiPage(t *testing.T) {
	anime, err := ParseBangumiPage(strings.NewReader(bangumiFixture))
	require.NoError(t, err)

	assert.Equal(t, "葬送的芙莉莲", anime.CnName)
	assert.Equal(t, "葬送のフリーレン", anime.OriginalTitle)
	assert.Equal(t, "https://lain.bgm.tv/pic/cover/l/frieren.jpg", anime.CoverURL)
	assert.Equal(t, "勇者一行人打倒了魔王。\n精灵魔法使芙莉莲踏上了新的旅程。", anime.Plot)
	assert.Equal(t, 9.1, anime.Rating)
	assert.Equal(t, "山田钟人", anime.OriginalAuthor)
	assert.Equal(t, "斋藤圭一郎", anime.Director)
	assert.Equal(t, "MADHOUSE", anime.Studio)
	assert.Equal(t, "https://frieren-anime.jp/", anime.Website)
	assert.Equal(t, model.AnimeClassTV, anime.AnimeClass)
	assert.Equal(t, "28话", anime.Episodes)
	assert.Equal(t, "2023-09-29", anime.AirDate)
	assert.Equal(t, "奇幻,漫改,日本", anime.Tags)
	assert.Equal(t, "日本", anime.Country)
	assert.Equal(t, "漫画", anime.Source)
	assert.Equal(t, "Frieren: Beyond Journey's End", anime.Aliases)
	assert.Equal(t, "芙莉莲 (主角) cv: 种崎敦美", anime.Cast)
	assert.Equal(t, "bangumi", anime.MediaSource)
}

func TestParseBangumiPage_Film(t *testing.T) {
	page := `<html><head><meta name="keywords" content="你的名字。"></head><body>
<ul id="infobox"><li><span class="tip">上映年度: </span>2016年8月26日</li></ul></body></html>`

	anime, err := ParseBangumiPage(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, model.AnimeClassFilm, anime.AnimeClass)
	assert.Equal(t, "1话", anime.Episodes)
	assert.Equal(t, "2016-08-26", anime.AirDate)
	assert.Equal(t, anime.CnName, anime.OriginalTitle)
	assert.Empty(t, anime.Aliases)
}

func TestParseRating(t *testing.T) {
	cases := map[string]float64{
		" 9.1 ": 9.1,
		"7":     7,
		"":      0,
		"暂无":    0,
		"NaN":   0,
		"11.5":  0,
		"-1":    0,
	}
	for text, want := range cases {
		assert.Equal(t, want, parseRating(text), text)
	}

	page := `<html><head><meta name="keywords" content="测试"></head><body>
<span property="v:average">--</span></body></html>`
	anime, err := ParseBangumiPage(strings.NewReader(page))
	require.NoError(t, err)
	assert.Zero(t, anime.Rating)
}

func TestAnimeService_ListWildcardsAreLiteral(t *testing.T) {
	svc := NewAnimeService(newTestDB(t), nil, testLog)
	ctx := context.Background()

	seed := []dto.AnimeRequest{
		{UID: "1", CnName: "普通", Tags: "日常"},
		{UID: "2", CnName: "100%恋爱", Tags: "恋爱_校园"},
	}
	for i := range seed {
		_, err := svc.Create(ctx, &seed[i])
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, &dto.AnimeQueryRequest{Keyword: "%"})
	require.NoError(t, err)
	require.Len(t, resp.List, 1)
	assert.Equal(t, "100%恋爱", resp.List[0].CnName)

	resp, err = svc.List(ctx, &dto.AnimeQueryRequest{Tag: "_"})
	require.NoError(t, err)
	require.Len(t, resp.List, 1)
	assert.Equal(t, "100%恋爱", resp.List[0].CnName)
}
