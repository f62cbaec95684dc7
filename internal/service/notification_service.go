package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blane-next/internal/cache"
	"github.com/blane-next/internal/i18n"
	"github.com/blane-next/internal/logger"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/queue"
	"github.com/blane-next/internal/repository"

	"github.com/shopspring/decimal"
)

// NotificationService 结算通知（商家转账通知与财务周报）
type NotificationService struct {
	settlementRepo repository.SettlementRepository
	vendorRepo     repository.VendorRepository
	settings       *CommissionSettingsService
	reports        *BankingReportService
	mailer         Mailer
	queueClient    *queue.Client
	locale         string

	// Redis 未启用时 SetOnce 恒为 true，进程内再记录一次已投递的周
	mu             sync.Mutex
	lastWeeklySent string
}

// NewNotificationService 创建通知服务
func NewNotificationService(
	settlementRepo repository.SettlementRepository,
	vendorRepo repository.VendorRepository,
	settings *CommissionSettingsService,
	reports *BankingReportService,
	mailer Mailer,
	queueClient *queue.Client,
) *NotificationService {
	return &NotificationService{
		settlementRepo: settlementRepo,
		vendorRepo:     vendorRepo,
		settings:       settings,
		reports:        reports,
		mailer:         mailer,
		queueClient:    queueClient,
		locale:         i18n.DefaultLocale,
	}
}

// SendSettlementProcessedEmail 通知商家结算已安排转账
// 商家或记录不存在时直接跳过，不视为失败。
func (s *NotificationService) SendSettlementProcessedEmail(ctx context.Context, payload queue.SettlementProcessedEmailPayload) error {
	log := logger.FromContext(ctx)
	vendor, err := s.vendorRepo.GetByID(payload.VendorID)
	if err != nil {
		return err
	}
	if vendor == nil || strings.TrimSpace(vendor.Email) == "" {
		log.Debugw("settlement_processed_email_skip_no_recipient", "vendor_id", payload.VendorID)
		return nil
	}
	records, err := s.settlementRepo.ListByIDs(payload.SettlementIDs)
	if err != nil {
		return err
	}
	lines := make([]string, 0, len(records))
	net := decimal.Zero
	for _, record := range records {
		if record.VendorID != vendor.ID {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s : %s (%s)", record.BookingReference, record.NetAmountTTC.String(), record.WeekStart))
		net = net.Add(record.NetAmountTTC.Decimal)
	}
	if len(lines) == 0 {
		log.Debugw("settlement_processed_email_skip_no_records", "vendor_id", vendor.ID)
		return nil
	}
	transferDate := strings.TrimSpace(payload.TransferDate)
	if transferDate == "" {
		transferDate = time.Now().Format(models.BookingDayLayout)
	}
	msg := MailMessage{
		To:      []string{vendor.Email},
		Subject: i18n.Sprintf(s.locale, "email.settlement_processed.subject", len(lines)),
		Body: i18n.Sprintf(s.locale, "email.settlement_processed.body",
			vendor.CompanyName,
			transferDate,
			strings.Join(lines, "\n")+"\n",
			models.NewMoneyFromDecimal(net).String(),
		),
	}
	if err := s.mailer.Send(msg); err != nil {
		log.Warnw("settlement_processed_email_send_failed", "vendor_id", vendor.ID, "error", err)
		return err
	}
	log.Infow("settlement_processed_email_sent", "vendor_id", vendor.ID, "records", len(lines))
	return nil
}

// SendWeeklyBankingReport 向财务邮箱发送周报（附 XLSX）
func (s *NotificationService) SendWeeklyBankingReport(ctx context.Context, payload queue.WeeklyBankingReportEmailPayload) error {
	recipient := strings.TrimSpace(payload.Recipient)
	if recipient == "" {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return err
		}
		recipient = strings.TrimSpace(settings.FinanceEmail)
	}
	if recipient == "" {
		logger.FromContext(ctx).Debugw("weekly_banking_report_skip_no_recipient", "week_start", payload.WeekStart)
		return nil
	}
	report, err := s.reports.Generate(ctx, payload.WeekStart, payload.WeekEnd)
	if err != nil {
		return err
	}
	file, err := s.reports.Export(ctx, payload.WeekStart, payload.WeekEnd, "xlsx")
	if err != nil {
		return err
	}
	msg := MailMessage{
		To:      []string{recipient},
		Subject: i18n.Sprintf(s.locale, "email.weekly_report.subject", report.WeekStart, report.WeekEnd),
		Body: i18n.Sprintf(s.locale, "email.weekly_report.body",
			report.WeekStart,
			report.WeekEnd,
			len(report.Vendors),
			report.Totals.RecordCount,
			report.Totals.NetAmountTTC.String(),
			report.Totals.CommissionAmountInclVat.String(),
		),
		Attachments: []MailAttachment{{
			Filename:    file.Filename,
			ContentType: file.ContentType,
			Content:     file.Content,
		}},
	}
	if err := s.mailer.Send(msg); err != nil {
		logger.FromContext(ctx).Warnw("weekly_banking_report_send_failed", "week_start", report.WeekStart, "error", err)
		return err
	}
	logger.FromContext(ctx).Infow("weekly_banking_report_sent", "week_start", report.WeekStart, "week_end", report.WeekEnd, "recipient", recipient)
	return nil
}

// DispatchWeeklyReportIfDue 到达转账处理日时投递上一 ISO 周的报表任务，每周只投递一次
func (s *NotificationService) DispatchWeeklyReportIfDue(ctx context.Context, now time.Time) (bool, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return false, err
	}
	weekday, err := ParseTransferDay(settings.TransferProcessingDay)
	if err != nil {
		return false, err
	}
	if now.Weekday() != weekday || strings.TrimSpace(settings.FinanceEmail) == "" {
		return false, nil
	}
	previousWeek := ISOWeekStart(now).AddDate(0, 0, -7)
	isoYear, isoWeek := previousWeek.ISOWeek()
	weekKey := fmt.Sprintf("%04d-W%02d", isoYear, isoWeek)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastWeeklySent == weekKey {
		return false, nil
	}
	first, err := cache.MarkWeeklyReportSent(ctx, isoYear, isoWeek)
	if err != nil {
		return false, err
	}
	if !first {
		s.lastWeeklySent = weekKey
		return false, nil
	}
	s.lastWeeklySent = weekKey
	week := previousWeek.Format(models.BookingDayLayout)
	payload := queue.WeeklyBankingReportEmailPayload{
		WeekStart: week,
		WeekEnd:   week,
		Recipient: settings.FinanceEmail,
	}
	if s.queueClient == nil || !s.queueClient.Enabled() {
		if err := s.SendWeeklyBankingReport(ctx, payload); err != nil {
			s.releaseWeeklyMark(ctx, isoYear, isoWeek)
			return false, err
		}
		return true, nil
	}
	if err := s.queueClient.EnqueueWeeklyBankingReportEmail(payload); err != nil {
		s.releaseWeeklyMark(ctx, isoYear, isoWeek)
		return false, err
	}
	logger.FromContext(ctx).Infow("weekly_banking_report_enqueued", "week_start", week, "iso_week", isoWeek)
	return true, nil
}

// releaseWeeklyMark 撤销本周已投递标记，调用方需持有 s.mu
func (s *NotificationService) releaseWeeklyMark(ctx context.Context, isoYear, isoWeek int) {
	s.lastWeeklySent = ""
	if err := cache.ClearWeeklyReportSent(ctx, isoYear, isoWeek); err != nil {
		logger.FromContext(ctx).Warnw("weekly_banking_report_mark_clear_failed", "iso_week", isoWeek, "error", err)
	}
}
