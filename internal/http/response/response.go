package response

import (
	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Status    bool        `json:"status"`               // 是否成功
	Code      int         `json:"code"`                 // 业务状态码（与 HTTP 状态码一致）
	Message   string      `json:"message"`              // 提示消息
	Data      interface{} `json:"data,omitempty"`       // 数据内容
	Errors    interface{} `json:"errors,omitempty"`     // 字段级错误
	Meta      *Meta       `json:"meta,omitempty"`       // 分页信息
	RequestID string      `json:"request_id,omitempty"` // 请求ID（仅错误响应）
}

// Meta 分页信息
type Meta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	From        int   `json:"from"`
	To          int   `json:"to"`
}

// NewMeta 根据总数与分页参数计算分页信息
func NewMeta(total int64, page, perPage int) *Meta {
	if perPage <= 0 {
		perPage = 20
	}
	if page < 1 {
		page = 1
	}
	lastPage := int((total + int64(perPage) - 1) / int64(perPage))
	if lastPage < 1 {
		lastPage = 1
	}
	meta := &Meta{Total: total, CurrentPage: page, LastPage: lastPage, PerPage: perPage}
	offset := (page - 1) * perPage
	if int64(offset) < total {
		meta.From = offset + 1
		meta.To = offset + perPage
		if int64(meta.To) > total {
			meta.To = int(total)
		}
	}
	return meta
}

// Success 成功响应
func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(CodeOK, Response{Status: true, Code: CodeOK, Message: msg, Data: data})
}

// Created 创建成功响应
func Created(c *gin.Context, msg string, data interface{}) {
	c.JSON(CodeCreated, Response{Status: true, Code: CodeCreated, Message: msg, Data: data})
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, msg string, data interface{}, meta *Meta) {
	c.JSON(CodeOK, Response{Status: true, Code: CodeOK, Message: msg, Data: data, Meta: meta})
}

// Error 错误响应
func Error(c *gin.Context, code int, msg string) {
	ErrorWithErrors(c, code, msg, nil)
}

// ErrorWithErrors 错误响应（带字段错误）
func ErrorWithErrors(c *gin.Context, code int, msg string, errs interface{}) {
	c.JSON(httpStatus(code), Response{
		Status:    false,
		Code:      code,
		Message:   msg,
		Errors:    errs,
		RequestID: requestIDFrom(c),
	})
}

// AbortWithError 终止中间件链并返回错误响应
func AbortWithError(c *gin.Context, code int, msg string) {
	Error(c, code, msg)
	c.Abort()
}

func httpStatus(code int) int {
	if code < 400 || code > 599 {
		return CodeInternal
	}
	return code
}

func requestIDFrom(c *gin.Context) string {
	if c == nil {
		return ""
	}
	if value, ok := c.Get("request_id"); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
