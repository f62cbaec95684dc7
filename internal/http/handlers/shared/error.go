package shared

import (
	"github.com/blane-next/internal/http/response"
	"github.com/blane-next/internal/i18n"
	"github.com/blane-next/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get("request_id"); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, code int, key string, err error) {
	RespondErrorWithMsg(c, code, i18n.T(i18n.ResolveLocale(c), key), err)
}

// RespondErrorWithMsg 返回自定义消息错误响应，并在有原始错误时记录日志。
func RespondErrorWithMsg(c *gin.Context, code int, msg string, err error) {
	RespondAppError(c, response.WrapError(code, msg, err))
}

// RespondAppError 输出 AppError，原始错误只写日志不返回
func RespondAppError(c *gin.Context, appErr *response.AppError) {
	if appErr == nil {
		return
	}
	if appErr.Err != nil {
		log := RequestLog(c)
		if appErr.Internal() {
			log.Errorw("handler_error", "code", appErr.Code, "message", appErr.Message, "error", appErr.Err)
		} else {
			log.Warnw("handler_error", "code", appErr.Code, "message", appErr.Message, "error", appErr.Err)
		}
	}
	if len(appErr.Fields) > 0 {
		response.ErrorWithErrors(c, appErr.Code, appErr.Message, appErr.Fields)
		return
	}
	response.Error(c, appErr.Code, appErr.Message)
}

// Success 返回国际化成功消息
func Success(c *gin.Context, data interface{}) {
	response.Success(c, i18n.T(i18n.ResolveLocale(c), "message.success"), data)
}

// Created 返回国际化创建成功消息
func Created(c *gin.Context, data interface{}) {
	response.Created(c, i18n.T(i18n.ResolveLocale(c), "message.created"), data)
}

// SuccessWithPage 返回分页结果
func SuccessWithPage(c *gin.Context, data interface{}, total int64, page, pageSize int) {
	response.SuccessWithPage(c, i18n.T(i18n.ResolveLocale(c), "message.success"), data, response.NewMeta(total, page, pageSize))
}
