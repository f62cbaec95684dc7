package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/blane-next/internal/models"
)

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseTransferDay 解析每周转账处理日（monday..sunday）
func ParseTransferDay(raw string) (time.Weekday, error) {
	day, ok := weekdayNames[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return time.Monday, fmt.Errorf("%w: %q", ErrInvalidTransferDay, raw)
	}
	return day, nil
}

// ISOWeekStart 返回 t 所在 ISO 周的周一零点（保留时区）
func ISOWeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
}

// WeekBucket 计算结算记录所属周：优先支付日期，缺省使用预订日期
func WeekBucket(bookingDate time.Time, paymentDate *time.Time) string {
	anchor := bookingDate
	if paymentDate != nil && !paymentDate.IsZero() {
		anchor = *paymentDate
	}
	return ISOWeekStart(anchor).Format(models.BookingDayLayout)
}

// ParseDay 解析 YYYY-MM-DD 日期
func ParseDay(raw string) (time.Time, error) {
	t, err := time.ParseInLocation(models.BookingDayLayout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrValidation, raw)
	}
	return t, nil
}
