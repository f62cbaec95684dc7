package admin

import (
	"fmt"
	"strings"
	"time"

	handlershared "github.com/blane-next/internal/http/handlers/shared"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/service"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, "admin_id", "error.admin_id_invalid", "error.admin_id_type_invalid")
}

// parseOptionalDate 解析 YYYY-MM-DD 或 RFC3339，空值返回 nil
func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(models.BookingDayLayout, value, time.Local); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", service.ErrValidation, value)
	}
	return &t, nil
}
