package shared

import (
	"errors"
	"strings"
	"unicode"

	"github.com/blane-next/internal/http/response"
	"github.com/blane-next/internal/i18n"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// RespondBindError 处理参数绑定失败：字段校验错误返回 422 与字段明细，其余返回 400
func RespondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string][]string, len(verrs))
		for _, fe := range verrs {
			name := snakeCase(fe.Field())
			fields[name] = append(fields[name], validationMessage(fe))
		}
		RequestLog(c).Debugw("handler_validation_failed", "fields", fields)
		RespondAppError(c, response.WrapError(response.CodeValidation, i18n.T(i18n.ResolveLocale(c), "error.validation"), nil).WithFields(fields))
		return
	}
	RespondError(c, response.CodeBadRequest, "error.bad_request", err)
}

func validationMessage(fe validator.FieldError) string {
	if fe.Param() != "" {
		return fe.Tag() + "=" + fe.Param()
	}
	return fe.Tag()
}

func snakeCase(name string) string {
	var builder strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				builder.WriteByte('_')
			}
			builder.WriteRune(unicode.ToLower(r))
			continue
		}
		builder.WriteRune(r)
	}
	return builder.String()
}
