package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// 支持的语言
const (
	LocaleZH = "zh-CN"
	LocaleEN = "en-US"
	LocaleFR = "fr-FR"
)

// DefaultLocale 默认语言
const DefaultLocale = LocaleFR

// ContextLocaleKey 请求上下文中的语言键
const ContextLocaleKey = "locale"

// Normalize 规范化语言标识，不支持的语言回退到默认语言
func Normalize(locale string) string {
	value := strings.ToLower(strings.TrimSpace(locale))
	switch {
	case value == "":
		return DefaultLocale
	case strings.HasPrefix(value, "zh"):
		return LocaleZH
	case strings.HasPrefix(value, "en"):
		return LocaleEN
	case strings.HasPrefix(value, "fr"):
		return LocaleFR
	default:
		return DefaultLocale
	}
}

// ResolveLocale 从请求解析语言：上下文 > ?lang > Accept-Language
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if value, ok := c.Get(ContextLocaleKey); ok {
		if locale, ok := value.(string); ok && locale != "" {
			return locale
		}
	}
	if lang := strings.TrimSpace(c.Query("lang")); lang != "" {
		return Normalize(lang)
	}
	header := c.GetHeader("Accept-Language")
	if header == "" {
		return DefaultLocale
	}
	first := strings.Split(header, ",")[0]
	first = strings.Split(first, ";")[0]
	return Normalize(first)
}

// T 翻译文案，缺失时依次回退到默认语言与 key 本身
func T(locale, key string) string {
	if msg, ok := lookup(Normalize(locale), key); ok {
		return msg
	}
	if msg, ok := lookup(DefaultLocale, key); ok {
		return msg
	}
	return key
}

// Sprintf 翻译并格式化文案
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func lookup(locale, key string) (string, bool) {
	catalog, ok := catalogs[locale]
	if !ok {
		return "", false
	}
	msg, ok := catalog[key]
	return msg, ok
}
