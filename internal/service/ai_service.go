package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"
	"github.com/nsxzhou1114/blog-platform/internal/config"
	"github.com/nsxzhou1114/blog-platform/internal/dto"
	"github.com/nsxzhou1114/blog-platform/pkg/metrics"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=mocks/mock_chat_completer.go -package=mocks github.com/nsxzhou1114/blog-platform/internal/service ChatCompleter

// 生成类型
const (
	AITypeContent  = "content"
	AITypeSummary  = "summary"
	AITypeTitle    = "title"
	AITypePolish   = "polish"
	AITypeGenerate = "generate"
	AITypeComplete = "complete"
)

const defaultLanguage = "zh-CN"

// errEmptyCompletion 服务端返回了空结果
var errEmptyCompletion = errors.New("生成结果为空")

// ChatCompleter 单轮对话补全
type ChatCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// ChatClient 兼容 chat/completions 协议的客户端
type ChatClient struct {
	client  *resty.Client
	cfg     config.AIConfig
	log     *zap.SugaredLogger
	retries uint
}

// NewChatClient 创建客户端，未配置 api_key 时返回 nil
func NewChatClient(cfg config.AIConfig, log *zap.SugaredLogger) *ChatClient {
	if cfg.APIKey == "" {
		return nil
	}
	client := resty.New().
		SetTimeout(cfg.Timeout()).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	return &ChatClient{client: client, cfg: cfg, log: log, retries: uint(cfg.Retries)}
}

// Complete 发送提示词并返回第一条回复，网络错误和 5xx 会重试
func (c *ChatClient) Complete(ctx context.Context, prompt string) (string, error) {
	body := chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	}

	var content string
	err := retry.Do(
		func() error {
			var out chatResponse
			resp, err := c.client.R().
				SetContext(ctx).
				SetBody(body).
				SetResult(&out).
				Post(c.cfg.APIURL)
			if err != nil {
				return fmt.Errorf("请求生成接口失败: %w", err)
			}
			if resp.StatusCode() != http.StatusOK {
				return &statusError{code: resp.StatusCode()}
			}
			if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
				return errEmptyCompletion
			}
			content = out.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retries+1),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.code >= 500 || se.code == http.StatusTooManyRequests
			}
			return !errors.Is(err, errEmptyCompletion)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warnf("重试生成请求 第%d次: %v", n+1, err)
		}),
	)
	return content, err
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("生成接口返回状态码 %d", e.code)
}

// AIService 写作辅助，服务端不可用时返回本地模板内容
type AIService struct {
	mu        sync.RWMutex
	completer ChatCompleter
	log       *zap.SugaredLogger
}

// NewAIService completer 为 nil 时始终使用本地模板
func NewAIService(completer ChatCompleter, log *zap.SugaredLogger) *AIService {
	return &AIService{completer: completer, log: log}
}

// NewAIServiceFromConfig 按配置创建，api_key 为空时进入模板模式
func NewAIServiceFromConfig(cfg config.AIConfig, log *zap.SugaredLogger) *AIService {
	if client := NewChatClient(cfg, log); client != nil {
		return NewAIService(client, log)
	}
	log.Info("未配置 AI api_key，生成接口使用本地模板")
	return NewAIService(nil, log)
}

// Reload 按新配置重建客户端，进行中的请求继续使用旧客户端
func (s *AIService) Reload(cfg config.AIConfig) {
	var completer ChatCompleter
	if client := NewChatClient(cfg, s.log); client != nil {
		completer = client
	}

	s.mu.Lock()
	s.completer = completer
	s.mu.Unlock()
	s.log.Infof("AI 配置已更新，模型 %s，模板模式 %t", cfg.Model, completer == nil)
}

func (s *AIService) currentCompleter() ChatCompleter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completer
}

// Generate 生成文本，不因服务端错误而失败
func (s *AIService) Generate(ctx context.Context, req *dto.AIGenerateRequest) (*dto.AIGenerateResponse, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}
	resp := &dto.AIGenerateResponse{Type: req.Type}

	completer := s.currentCompleter()
	if completer == nil {
		metrics.AIFallbacks.WithLabelValues("no_key").Inc()
		resp.Result = mockGenerate(req.Type, req.Input)
		return resp, nil
	}

	result, err := completer.Complete(ctx, prompt)
	switch {
	case err != nil && !errors.Is(err, errEmptyCompletion):
		s.log.Errorf("AI 生成失败，使用本地模板: %v", err)
		metrics.AIFallbacks.WithLabelValues("error").Inc()
		resp.Result = mockGenerate(req.Type, req.Input)
	case strings.TrimSpace(result) == "":
		metrics.AIFallbacks.WithLabelValues("empty").Inc()
		resp.Result = mockGenerate(req.Type, req.Input)
	default:
		resp.Result = result
	}
	return resp, nil
}

func buildPrompt(req *dto.AIGenerateRequest) (string, error) {
	input, ctxText := req.Input, req.Context
	var prompt string
	switch req.Type {
	case AITypeContent:
		prompt = "请根据以下标题或关键词，生成一篇博客文章的内容（使用 Markdown 格式）：\n\n" + input +
			"\n\n要求：\n1. 内容详实、结构清晰\n2. 包含引言、正文、总结\n3. 适当使用标题、列表等格式\n4. 字数在 800-1500 字之间"
	case AITypeSummary:
		prompt = "请为以下文章生成一段简洁的摘要（100-200字）：\n\n" + input
	case AITypeTitle:
		prompt = "请根据以下内容，生成 5 个合适的博客文章标题：\n\n" + input +
			"\n\n要求：\n1. 标题简洁有力\n2. 吸引读者点击\n3. 准确反映内容"
	case AITypePolish:
		prompt = "请润色以下文本内容，使其更加流畅、专业、易读，同时保持原意不变（使用 Markdown 格式）：\n\n" + input +
			"\n\n要求：\n1. 优化语言表达，使其更加准确和流畅\n2. 改善句式结构，增强可读性\n3. 修正语法和标点错误\n4. 保持原有的格式和结构\n5. 保持原文风格和语气"
	case AITypeGenerate:
		existing := ctxText
		if existing == "" {
			existing = "无"
		}
		prompt = "请根据以下已有内容和要求，生成新的内容部分（使用 Markdown 格式）：\n\n已有内容：\n" + existing +
			"\n\n生成要求：\n" + input +
			"\n\n要求：\n1. 与已有内容风格保持一致\n2. 内容连贯、逻辑清晰\n3. 适当使用技术术语和示例\n4. 保持 Markdown 格式规范"
	case AITypeComplete:
		var ref string
		if ctxText != "" {
			ref = "上下文参考：\n" + ctxText + "\n\n"
		}
		prompt = "请补全以下未完成的内容，使其成为完整的段落或章节（使用 Markdown 格式）：\n\n未完成内容：\n" + input +
			"\n\n" + ref + "要求：\n1. 自然延续未完成的内容\n2. 保持与前文风格一致\n3. 补全到一个完整的结束点\n4. 内容充实、逻辑连贯"
	default:
		return "", fmt.Errorf("%w: 不支持的生成类型 %s", ErrInvalidParam, req.Type)
	}

	if lang := strings.TrimSpace(req.Language); lang != "" && lang != defaultLanguage {
		prompt += "\n\n请使用 " + lang + " 输出。"
	}
	return prompt, nil
}

// mockGenerate 本地模板，未配置服务端或调用失败时使用
func mockGenerate(kind, input string) string {
	switch kind {
	case AITypeContent:
		return "# " + input + "\n\n## 引言\n\n这是一篇关于\"" + input + "\"的技术文章。在现代 Web 开发中，这个主题非常重要。\n\n" +
			"## 核心内容\n\n### 1. 基础概念\n\n首先，我们需要了解基础概念和原理。\n\n" +
			"### 2. 实践应用\n\n在实际项目中，我们可以这样应用：\n\n```go\nfunc example() {\n\tfmt.Println(\"Hello World\")\n}\n```\n\n" +
			"### 3. 最佳实践\n\n遵循以下最佳实践可以提高代码质量：\n- 保持代码简洁\n- 注重性能优化\n- 编写测试用例\n\n" +
			"## 总结\n\n通过本文的学习，我们掌握了相关知识和技能。希望对你有所帮助！"
	case AITypeSummary:
		return "本文深入探讨了\"" + truncateRunes(input, 20) + "...\"的相关内容，从基础概念到实践应用，为读者提供了全面的技术指导。"
	case AITypeTitle:
		return fmt.Sprintf("1. 深入理解 %[1]s\n2. %[1]s 完全指南\n3. 从零开始学习 %[1]s\n4. %[1]s 最佳实践\n5. %[1]s 实战教程", input)
	case AITypePolish:
		return input + "\n\n[已润色：语言更加流畅，结构更加清晰，表达更加专业]"
	case AITypeGenerate:
		return "## 新生成的内容\n\n基于您的要求，这里是生成的内容：\n\n" + truncateRunes(input, 50) + "...\n\n这部分内容与前文保持一致的风格和深度。"
	case AITypeComplete:
		return input + "\n\n此外，我们还需要注意以下几点：\n\n1. 保持代码的可维护性\n2. 注重性能优化\n3. 遵循最佳实践\n\n通过以上方法，我们可以更好地实现目标。"
	default:
		return "生成失败"
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
