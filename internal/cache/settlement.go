package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/blane-next/internal/models"
)

const commissionSettingsKey = "settlement:commission_settings"

// GetCommissionSettings 读取佣金配置缓存
func GetCommissionSettings(ctx context.Context) (*models.CommissionSettings, bool, error) {
	var settings models.CommissionSettings
	hit, err := GetJSON(ctx, commissionSettingsKey, &settings)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &settings, true, nil
}

// SetCommissionSettings 写入佣金配置缓存
func SetCommissionSettings(ctx context.Context, settings *models.CommissionSettings, ttl time.Duration) error {
	if settings == nil {
		return nil
	}
	return SetJSON(ctx, commissionSettingsKey, settings, ttl)
}

// DelCommissionSettings 删除佣金配置缓存
func DelCommissionSettings(ctx context.Context) error {
	return Del(ctx, commissionSettingsKey)
}

func weeklyReportKey(isoYear, isoWeek int) string {
	return fmt.Sprintf("settlement:weekly_report:%04d-W%02d", isoYear, isoWeek)
}

// MarkWeeklyReportSent 标记某 ISO 周的银行报表邮件已投递，重复标记返回 false
func MarkWeeklyReportSent(ctx context.Context, isoYear, isoWeek int) (bool, error) {
	return SetOnce(ctx, weeklyReportKey(isoYear, isoWeek), 8*24*time.Hour)
}

// ClearWeeklyReportSent 投递失败时撤销标记，允许后续轮次重试
func ClearWeeklyReportSent(ctx context.Context, isoYear, isoWeek int) error {
	return Del(ctx, weeklyReportKey(isoYear, isoWeek))
}
