package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/nsxzhou1114/blog-platform/internal/config"
	"github.com/nsxzhou1114/blog-platform/internal/middleware"
	"github.com/nsxzhou1114/blog-platform/internal/model"
	"github.com/nsxzhou1114/blog-platform/internal/service"
	"github.com/nsxzhou1114/blog-platform/pkg/auth"
	"github.com/nsxzhou1114/blog-platform/pkg/cache"
	"github.com/nsxzhou1114/blog-platform/pkg/export"
	"github.com/nsxzhou1114/blog-platform/pkg/idgen"
	"github.com/nsxzhou1114/blog-platform/pkg/iplocation"
	"github.com/nsxzhou1114/blog-platform/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
	mr     *miniredis.Miniredis
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "blog.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, model.InitTables(db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := zap.NewNop()
	sugar := log.Sugar()
	rc := cache.NewResponseCache(client, log)
	tokens := auth.NewManager(config.JWTConfig{
		SecretKey:            "router-test",
		AccessExpireSeconds:  3600,
		RefreshExpireSeconds: 7200,
		Issuer:               "blog-platform-test",
	}, auth.NewRedisBlacklist(client, 0, log))

	tags := service.NewTagService(db, rc, sugar)
	articles := service.NewArticleService(service.ArticleServiceDeps{
		DB:    db,
		Log:   sugar,
		Cache: rc,
		Views: cache.NewViewBuffer(client),
		Tags:  tags,
	})
	locator, err := iplocation.New("")
	require.NoError(t, err)
	ids, err := idgen.New(1)
	require.NoError(t, err)
	store := storage.NewLocal(t.TempDir(), "/uploads")

	rules := func() config.RateLimitConfig { return config.RateLimitConfig{Enabled: false} }

	engine := New(&Deps{
		DB:       db,
		Redis:    client,
		Tokens:   tokens,
		Cache:    rc,
		Limiter:  middleware.NewRateLimiter(client, rules, log),
		Storage:  store,
		Logger:   sugar,
		Users:    service.NewUserService(db, tokens, nil, sugar),
		Articles: articles,
		Exports:  service.NewExportService(articles, export.New(export.Options{})),
		Tags:     tags,
		Comments: service.NewCommentService(db, service.NewSensitiveService(sugar), locator, false, sugar),
		Anime:    service.NewAnimeService(db, service.NewAnimeCrawler(config.Default().Crawler), sugar),
		AI:       service.NewAIService(nil, sugar),
		Uploads:  service.NewUploadService(store, ids, 5<<20, []string{".png", ".jpg"}, sugar),
	})
	return &testServer{engine: engine, db: db, mr: mr}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") != "" && bytes.HasPrefix(w.Body.Bytes(), []byte("{")) {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (s *testServer) register(t *testing.T, username string) string {
	t.Helper()

	w, env := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"database":true`)
	assert.Contains(t, string(env.Data), `"redis":true`)
}

func TestArticleFlowWithCache(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice")

	w, _ := s.do(t, http.MethodPost, "/api/articles", "", gin.H{"title": "x", "content": "y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/articles", token, gin.H{
		"title":   "缓存测试",
		"content": "正文",
		"status":  "published",
		"tags":    []string{"Go"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	detailPath := fmt.Sprintf("/api/articles/%d", created.ID)

	w, _ = s.do(t, http.MethodGet, "/api/articles", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get(middleware.HeaderCache))
	w, _ = s.do(t, http.MethodGet, "/api/articles", "", nil)
	assert.Equal(t, "HIT", w.Header().Get(middleware.HeaderCache))

	w, _ = s.do(t, http.MethodGet, detailPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get(middleware.HeaderCache))
	w, _ = s.do(t, http.MethodGet, detailPath, "", nil)
	assert.Equal(t, "HIT", w.Header().Get(middleware.HeaderCache))

	views := s.mr.HGet(cache.ArticleViewsKey, fmt.Sprint(created.ID))
	assert.Equal(t, "2", views, "cache hits are counted too")

	// 更新后列表与详情缓存失效
	w, _ = s.do(t, http.MethodPut, detailPath, token, gin.H{"title": "新标题"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w, _ = s.do(t, http.MethodGet, "/api/articles", "", nil)
	assert.Equal(t, "MISS", w.Header().Get(middleware.HeaderCache))
	w, env = s.do(t, http.MethodGet, detailPath, "", nil)
	assert.Equal(t, "MISS", w.Header().Get(middleware.HeaderCache))
	assert.Contains(t, string(env.Data), "新标题")

	w, env = s.do(t, http.MethodPost, detailPath+"/like", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"like_count":1}`, string(env.Data))

	w, _ = s.do(t, http.MethodGet, detailPath+"/export?format=markdown", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "# 新标题")
}

func TestDetailCacheAliasesAreInvalidated(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice")

	w, env := s.do(t, http.MethodPost, "/api/articles", token, gin.H{"title": "别名", "content": "正文", "status": "published"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	alias := fmt.Sprintf("/api/articles/0%d", created.ID)

	w, _ = s.do(t, http.MethodGet, alias, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get(middleware.HeaderCache))
	w, _ = s.do(t, http.MethodGet, alias, "", nil)
	assert.Equal(t, "HIT", w.Header().Get(middleware.HeaderCache))
	assert.NotEmpty(t, s.mr.Keys(), "alias stored")
	for _, key := range s.mr.Keys() {
		assert.NotContains(t, key, fmt.Sprintf("article:0%d:", created.ID))
	}

	w, _ = s.do(t, http.MethodDelete, fmt.Sprintf("/api/articles/%d", created.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = s.do(t, http.MethodGet, alias, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "MISS", w.Header().Get(middleware.HeaderCache))
}

func TestCamelCaseQueryParams(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "alice")
	for _, title := range []string{"一", "二", "三"} {
		w, _ := s.do(t, http.MethodPost, "/api/articles", token, gin.H{"title": title, "content": "正文", "status": "published"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w, env := s.do(t, http.MethodGet, "/api/articles?pageSize=2&sortBy=title&sortOrder=asc", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "MISS", w.Header().Get(middleware.HeaderCache))
	var page struct {
		Items []struct {
			Title string `json:"title"`
		} `json:"items"`
		Total    int64 `json:"total"`
		PageSize int   `json:"page_size"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 3, page.Total)
	assert.Equal(t, 2, page.PageSize)
	require.Len(t, page.Items, 2)

	w, _ = s.do(t, http.MethodGet, "/api/articles?order=asc&page_size=2&sort_by=title", "", nil)
	assert.Equal(t, "HIT", w.Header().Get(middleware.HeaderCache), "both spellings share one cache entry")
}

func TestDraftsAreNotCached(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "bob")

	w, env := s.do(t, http.MethodPost, "/api/articles", token, gin.H{"title": "草稿", "content": "c", "status": "draft"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID uint `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	path := fmt.Sprintf("/api/articles/%d", created.ID)

	w, _ = s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, path, token, nil)
	assert.Equal(t, "MISS", w.Header().Get(middleware.HeaderCache))

	w, _ = s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "owner views never leak through the shared cache")
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "carol")

	w, _ := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "carol", "email": "other@example.com", "password": "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"username": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "carol", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"username":"carol"`)

	w, _ = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, "/api/auth/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTagWritesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "dave")

	w, _ := s.do(t, http.MethodPost, "/api/tags", token, gin.H{"name": "Go"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	require.NoError(t, s.db.Model(&model.User{}).Where("username = ?", "dave").Update("role", model.RoleAdmin).Error)
	w, env := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"username": "dave", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))

	w, _ = s.do(t, http.MethodPost, "/api/tags", login.Token, gin.H{"name": "Go", "color": "blue"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/tags", login.Token, gin.H{"name": "Go", "color": "#00add8"})
	assert.Equal(t, http.StatusCreated, w.Code)
	w, _ = s.do(t, http.MethodPost, "/api/tags", login.Token, gin.H{"name": "Go"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAIGenerateUsesMockWithoutKey(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "erin")

	w, _ := s.do(t, http.MethodPost, "/api/ai/generate", token, gin.H{"type": "unknown", "input": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.do(t, http.MethodPost, "/api/ai/generate", token, gin.H{"type": "title", "input": "Go 并发"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"type":"title"`)
}

func TestAnimeRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "frank")

	w, _ := s.do(t, http.MethodPost, "/api/anime/crawl", token, gin.H{"url": "https://example.com/subject/1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/anime", token, gin.H{"uid": "1", "cn_name": "测试", "rating": 8})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w, _ = s.do(t, http.MethodPost, "/api/anime", token, gin.H{"uid": "1", "cn_name": "重复"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/anime/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"total":1`)

	w, _ = s.do(t, http.MethodGet, "/api/anime/999", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
