package service

import (
	"errors"
	"testing"
	"time"
)

func TestISOWeekStart(t *testing.T) {
	cases := map[string]string{
		"2026-03-09": "2026-03-09", // 周一
		"2026-03-11": "2026-03-09",
		"2026-03-15": "2026-03-09", // 周日归属上一周一
		"2026-01-01": "2025-12-29", // 跨年
	}
	for in, want := range cases {
		day, err := ParseDay(in)
		if err != nil {
			t.Fatalf("parse %s failed: %v", in, err)
		}
		if got := ISOWeekStart(day).Format("2006-01-02"); got != want {
			t.Fatalf("ISOWeekStart(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestWeekBucketPrefersPaymentDate(t *testing.T) {
	booking := time.Date(2026, 3, 6, 0, 0, 0, 0, time.Local)
	payment := time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)
	if got := WeekBucket(booking, &payment); got != "2026-03-09" {
		t.Fatalf("expected payment week, got %s", got)
	}
	if got := WeekBucket(booking, nil); got != "2026-03-02" {
		t.Fatalf("expected booking week, got %s", got)
	}
	zero := time.Time{}
	if got := WeekBucket(booking, &zero); got != "2026-03-02" {
		t.Fatalf("zero payment date should fall back, got %s", got)
	}
}

func TestParseTransferDay(t *testing.T) {
	day, err := ParseTransferDay(" Friday ")
	if err != nil || day != time.Friday {
		t.Fatalf("parse friday = %v, %v", day, err)
	}
	if _, err := ParseTransferDay("funday"); !errors.Is(err, ErrInvalidTransferDay) {
		t.Fatalf("expected ErrInvalidTransferDay, got %v", err)
	}
}

func TestParseDayRejectsGarbage(t *testing.T) {
	if _, err := ParseDay("10/03/2026"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
