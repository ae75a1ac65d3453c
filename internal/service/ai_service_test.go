package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nsxzhou1114/blog-platform/internal/config"
	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAIService_UsesCompleter(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockChatCompleter(ctrl)
	completer.EXPECT().
		Complete(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, prompt string) (string, error) {
			assert.Contains(t, prompt, "已有内容：\n前文")
			assert.Contains(t, prompt, "请使用 en-US 输出")
			return "generated", nil
		})

	svc := NewAIService(completer, testLog)
	resp, err := svc.Generate(context.Background(), &dto.AIGenerateRequest{
		Type: AITypeGenerate, Input: "写一段", Context: "前文", Language: "en-US",
	})
	require.NoError(t, err)
	assert.Equal(t, AITypeGenerate, resp.Type)
	assert.Equal(t, "generated", resp.Result)
}

func TestAIService_FallsBackToMock(t *testing.T) {
	ctrl := gomock.NewController(t)
	completer := mocks.NewMockChatCompleter(ctrl)
	svc := NewAIService(completer, testLog)
	ctx := context.Background()

	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("", errors.New("connection refused"))
	resp, err := svc.Generate(ctx, &dto.AIGenerateRequest{Type: AITypeTitle, Input: "Go"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Result, "1. 深入理解 Go\n"))

	completer.EXPECT().Complete(gomock.Any(), gomock.Any()).Return("  ", nil)
	resp, err = svc.Generate(ctx, &dto.AIGenerateRequest{Type: AITypePolish, Input: "原文"})
	require.NoError(t, err)
	assert.Equal(t, "原文\n\n[已润色：语言更加流畅，结构更加清晰，表达更加专业]", resp.Result)
}

func TestAIService_NoKeyUsesMock(t *testing.T) {
	svc := NewAIServiceFromConfig(config.Default().AI, testLog)

	resp, err := svc.Generate(context.Background(), &dto.AIGenerateRequest{
		Type: AITypeSummary, Input: "一二三四五六七八九十一二三四五六七八九十超出部分",
	})
	require.NoError(t, err)
	assert.Equal(t, "本文深入探讨了\"一二三四五六七八九十一二三四五六七八九十...\"的相关内容，从基础概念到实践应用，为读者提供了全面的技术指导。", resp.Result)

	_, err = svc.Generate(context.Background(), &dto.AIGenerateRequest{Type: "poem", Input: "x"})
	assert.ErrorIs(t, err, ErrInvalidParam)
}

func TestBuildPrompt_Complete(t *testing.T) {
	prompt, err := buildPrompt(&dto.AIGenerateRequest{Type: AITypeComplete, Input: "开头"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "未完成内容：\n开头")
	assert.NotContains(t, prompt, "上下文参考")

	prompt, err = buildPrompt(&dto.AIGenerateRequest{Type: AITypeComplete, Input: "开头", Context: "背景", Language: "zh-CN"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "上下文参考：\n背景")
	assert.NotContains(t, prompt, "请使用")
}

func TestChatClient_Complete(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		if assert.Len(t, body.Messages, 1) {
			assert.Equal(t, "user", body.Messages[0].Role)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"你好"}}]}`))
	}))
	defer server.Close()

	client := NewChatClient(config.AIConfig{
		APIKey: "test-key", APIURL: server.URL, Model: "test-model", TimeoutSeconds: 5,
	}, testLog)
	require.NotNil(t, client)

	got, err := client.Complete(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "你好", got)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestChatClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewChatClient(config.AIConfig{
		APIKey: "bad", APIURL: server.URL, TimeoutSeconds: 5, Retries: 3,
	}, testLog)

	_, err := client.Complete(context.Background(), "hi")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestAIService_ReloadSwitchesClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"来自 ` + body.Model + `"}}]}`))
	}))
	defer server.Close()

	svc := NewAIServiceFromConfig(config.Default().AI, testLog)
	ctx := context.Background()
	req := &dto.AIGenerateRequest{Type: AITypeTitle, Input: "Go"}

	resp, err := svc.Generate(ctx, req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Result, "1. 深入理解 Go"), "template mode before a key is configured")

	svc.Reload(config.AIConfig{APIKey: "new-key", APIURL: server.URL, Model: "model-b", TimeoutSeconds: 5})
	resp, err = svc.Generate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "来自 model-b", resp.Result)

	svc.Reload(config.AIConfig{Model: "model-b"})
	resp, err = svc.Generate(ctx, req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Result, "1. 深入理解 Go"), "removing the key returns to template mode")
}
