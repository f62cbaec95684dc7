package response

import "strings"

// AppError 接口层错误：业务码 + 可对外展示的消息 + 字段级错误 + 原始错误（仅记录日志）
type AppError struct {
	Code    int
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithFields 附加字段级错误
func (e *AppError) WithFields(fields map[string][]string) *AppError {
	if len(fields) > 0 {
		e.Fields = fields
	}
	return e
}

// Internal 是否为服务端错误
func (e *AppError) Internal() bool {
	return e.Code >= CodeInternal
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
