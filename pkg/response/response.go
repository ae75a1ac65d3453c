// Package response 统一的JSON响应信封，以及业务错误到HTTP状态码的映射
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HeaderRequestID 日志中间件写入的请求ID响应头
const HeaderRequestID = "X-Request-ID"

// Response 统一响应结构，成功时 code 为0，失败时与HTTP状态码一致
type Response struct {
	Code      int       `json:"code"`
	Message   string    `json:"message"`
	Data      any       `json:"data"`
	Meta      *PageMeta `json:"meta,omitempty"`
	RequestID string    `json:"request_id,omitempty"` // 仅错误响应携带，便于排查
}

// PageMeta 分页元数据
type PageMeta struct {
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

// Success 200成功响应
func Success(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Message: message, Data: data})
}

// SuccessPage 带分页元数据的成功响应
func SuccessPage(c *gin.Context, message string, data any, page, size int, total int64) {
	c.JSON(http.StatusOK, Response{
		Message: message,
		Data:    data,
		Meta:    &PageMeta{Page: page, Size: size, Total: total},
	})
}

// Created 201创建成功响应
func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Response{Message: message, Data: data})
}

// Error 错误响应，err 只挂到上下文供日志记录，不返回给客户端
func Error(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(status, Response{
		Code:      status,
		Message:   message,
		RequestID: c.Writer.Header().Get(HeaderRequestID),
	})
}

func BadRequest(c *gin.Context, message string, err error) {
	Error(c, http.StatusBadRequest, message, err)
}

func Unauthorized(c *gin.Context, message string, err error) {
	Error(c, http.StatusUnauthorized, message, err)
}

func Forbidden(c *gin.Context, message string, err error) {
	Error(c, http.StatusForbidden, message, err)
}

func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, message, nil)
}

func InternalServerError(c *gin.Context, message string, err error) {
	Error(c, http.StatusInternalServerError, message, err)
}

// StatusRule 一组业务错误共用的HTTP状态码
type StatusRule struct {
	Status int
	Errs   []error
}

// On 声明匹配 errs 中任一错误时使用的状态码
func On(status int, errs ...error) StatusRule {
	return StatusRule{Status: status, Errs: errs}
}

// ErrorTable 按声明顺序以 errors.Is 匹配业务错误
type ErrorTable struct {
	rules []StatusRule
}

// NewErrorTable 创建错误映射表
func NewErrorTable(rules ...StatusRule) *ErrorTable {
	return &ErrorTable{rules: rules}
}

// Status 错误对应的状态码，未登记的错误为500
func (t *ErrorTable) Status(err error) int {
	for _, rule := range t.rules {
		for _, target := range rule.Errs {
			if errors.Is(err, target) {
				return rule.Status
			}
		}
	}
	return http.StatusInternalServerError
}

// Write 按映射写入错误响应并返回状态码
// 已登记的错误返回其自身信息，未登记的错误只返回 fallback
func (t *ErrorTable) Write(c *gin.Context, err error, fallback string) int {
	status := t.Status(err)
	message := fallback
	if status != http.StatusInternalServerError {
		message = err.Error()
	}
	Error(c, status, message, err)
	return status
}
