package public

import "github.com/blane-next/internal/provider"

// Handler 公共接口处理器（前台下单与支付回调）
type Handler struct {
	*provider.Container
}

// New 创建公共处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
