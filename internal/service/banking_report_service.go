package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blane-next/internal/config"
	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/logger"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const defaultReportMaxWeeks = 53

// BankingReportService 银行转账报表服务
type BankingReportService struct {
	settlementRepo repository.SettlementRepository
	vendorRepo     repository.VendorRepository
	settings       *CommissionSettingsService
	cfg            config.ReportConfig
	now            func() time.Time
}

// NewBankingReportService 创建报表服务
func NewBankingReportService(
	settlementRepo repository.SettlementRepository,
	vendorRepo repository.VendorRepository,
	settings *CommissionSettingsService,
	cfg config.ReportConfig,
) *BankingReportService {
	return &BankingReportService{
		settlementRepo: settlementRepo,
		vendorRepo:     vendorRepo,
		settings:       settings,
		cfg:            cfg,
		now:            time.Now,
	}
}

// BankingReportVendorRow 单个商家的周期汇总
type BankingReportVendorRow struct {
	VendorID                uint         `json:"vendor_id"`
	CompanyName             string       `json:"company_name"`
	BankName                string       `json:"bank_name"`
	BankAccount             string       `json:"bank_account"`
	RecordCount             int64        `json:"record_count"`
	TotalAmountTTC          models.Money `json:"total_amount_ttc"`
	CommissionAmountInclVat models.Money `json:"commission_amount_incl_vat"`
	NetAmountTTC            models.Money `json:"net_amount_ttc"`
	PendingCount            int64        `json:"pending_count"`
	ProcessedCount          int64        `json:"processed_count"`
	CompleteCount           int64        `json:"complete_count"`
}

// BankingReportTotals 报表合计
type BankingReportTotals struct {
	RecordCount             int64        `json:"record_count"`
	TotalAmountTTC          models.Money `json:"total_amount_ttc"`
	CommissionAmountInclVat models.Money `json:"commission_amount_incl_vat"`
	NetAmountTTC            models.Money `json:"net_amount_ttc"`
	PendingCount            int64        `json:"pending_count"`
	ProcessedCount          int64        `json:"processed_count"`
	CompleteCount           int64        `json:"complete_count"`
}

// BankingReport 银行报表
type BankingReport struct {
	WeekStart    string                   `json:"week_start"`
	WeekEnd      string                   `json:"week_end"`
	DebitBank    string                   `json:"debit_bank"`
	DebitAccount string                   `json:"debit_account"`
	Vendors      []BankingReportVendorRow `json:"vendors"`
	Totals       BankingReportTotals      `json:"totals"`
	GeneratedAt  time.Time                `json:"generated_at"`
}

// SettlementDashboardStatus 看板单一状态汇总
type SettlementDashboardStatus struct {
	RecordCount             int64        `json:"record_count"`
	TotalAmountTTC          models.Money `json:"total_amount_ttc"`
	CommissionAmountInclVat models.Money `json:"commission_amount_incl_vat"`
	NetAmountTTC            models.Money `json:"net_amount_ttc"`
}

// SettlementDashboard 本周结算看板
type SettlementDashboard struct {
	WeekStart             string                               `json:"week_start"`
	WeekEnd               string                               `json:"week_end"`
	TransferProcessingDay string                               `json:"transfer_processing_day"`
	NextTransferDate      string                               `json:"next_transfer_date"`
	ByStatus              map[string]SettlementDashboardStatus `json:"by_status"`
}

// ReportFile 导出文件
type ReportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// NormalizeReportRange 校验并规范化周区间，起止日期对齐到所在周的周一
func (s *BankingReportService) NormalizeReportRange(weekStart, weekEnd string) (string, string, error) {
	start, err := ParseDay(weekStart)
	if err != nil {
		return "", "", fmt.Errorf("%w: week_start", ErrReportRangeInvalid)
	}
	end := start
	if strings.TrimSpace(weekEnd) != "" {
		if end, err = ParseDay(weekEnd); err != nil {
			return "", "", fmt.Errorf("%w: week_end", ErrReportRangeInvalid)
		}
	}
	start = ISOWeekStart(start)
	end = ISOWeekStart(end)
	if end.Before(start) {
		return "", "", fmt.Errorf("%w: week_end before week_start", ErrReportRangeInvalid)
	}
	maxWeeks := s.cfg.MaxWeeks
	if maxWeeks <= 0 {
		maxWeeks = defaultReportMaxWeeks
	}
	if weeks := int(end.Sub(start).Hours()/24/7) + 1; weeks > maxWeeks {
		return "", "", fmt.Errorf("%w: range exceeds %d weeks", ErrReportRangeInvalid, maxWeeks)
	}
	return start.Format(models.BookingDayLayout), end.Format(models.BookingDayLayout), nil
}

// Generate 按商家汇总周区间内的结算记录
func (s *BankingReportService) Generate(ctx context.Context, weekStart, weekEnd string) (*BankingReport, error) {
	from, to, err := s.NormalizeReportRange(weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	rows, err := s.settlementRepo.AggregateByVendor(from, to)
	if err != nil {
		return nil, err
	}
	vendorIDs := make([]uint, 0, len(rows))
	for _, row := range rows {
		vendorIDs = append(vendorIDs, row.VendorID)
	}
	vendors, err := s.vendorRepo.ListByIDs(vendorIDs)
	if err != nil {
		return nil, err
	}
	vendorMap := make(map[uint]models.Vendor, len(vendors))
	for _, vendor := range vendors {
		vendorMap[vendor.ID] = vendor
	}

	report := &BankingReport{
		WeekStart:   from,
		WeekEnd:     to,
		Vendors:     make([]BankingReportVendorRow, 0, len(rows)),
		GeneratedAt: s.now(),
	}
	if settings, err := s.settings.Get(ctx); err == nil {
		report.DebitBank = settings.SettlementBankName
		report.DebitAccount = settings.SettlementBankAccount
	} else {
		logger.FromContext(ctx).Warnw("banking_report_settings_unavailable", "error", err)
	}

	totalAmount, commission, net := decimal.Zero, decimal.Zero, decimal.Zero
	for _, row := range rows {
		vendor := vendorMap[row.VendorID]
		report.Vendors = append(report.Vendors, BankingReportVendorRow{
			VendorID:                row.VendorID,
			CompanyName:             vendor.CompanyName,
			BankName:                vendor.BankName,
			BankAccount:             vendor.BankAccount,
			RecordCount:             row.RecordCount,
			TotalAmountTTC:          models.NewMoneyFromDecimal(row.TotalAmountTTC),
			CommissionAmountInclVat: models.NewMoneyFromDecimal(row.CommissionAmountInclVat),
			NetAmountTTC:            models.NewMoneyFromDecimal(row.NetAmountTTC),
			PendingCount:            row.PendingCount,
			ProcessedCount:          row.ProcessedCount,
			CompleteCount:           row.CompleteCount,
		})
		totalAmount = totalAmount.Add(row.TotalAmountTTC)
		commission = commission.Add(row.CommissionAmountInclVat)
		net = net.Add(row.NetAmountTTC)
		report.Totals.RecordCount += row.RecordCount
		report.Totals.PendingCount += row.PendingCount
		report.Totals.ProcessedCount += row.ProcessedCount
		report.Totals.CompleteCount += row.CompleteCount
	}
	report.Totals.TotalAmountTTC = models.NewMoneyFromDecimal(totalAmount)
	report.Totals.CommissionAmountInclVat = models.NewMoneyFromDecimal(commission)
	report.Totals.NetAmountTTC = models.NewMoneyFromDecimal(net)
	return report, nil
}

// Export 导出周区间内的结算明细（xlsx 或 csv）
func (s *BankingReportService) Export(ctx context.Context, weekStart, weekEnd, format string) (*ReportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = constants.ReportFormatXLSX
	}
	if format != constants.ReportFormatXLSX && format != constants.ReportFormatCSV {
		return nil, ErrReportFormatInvalid
	}
	from, to, err := s.NormalizeReportRange(weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	records, err := s.settlementRepo.ListByWeekRange(from, to)
	if err != nil {
		return nil, err
	}
	debitAccount := ""
	if settings, err := s.settings.Get(ctx); err == nil {
		debitAccount = settings.SettlementBankAccount
	}
	rows := buildReportRows(records, debitAccount)

	filename := fmt.Sprintf("banking-report-%s_%s.%s", from, to, format)
	var content []byte
	if format == constants.ReportFormatCSV {
		content, err = renderReportCSV(rows)
	} else {
		content, err = renderReportXLSX(s.sheetTitle(), rows)
	}
	if err != nil {
		logger.FromContext(ctx).Errorw("banking_report_export_failed", "format", format, "week_start", from, "week_end", to, "error", err)
		return nil, err
	}
	file := &ReportFile{Filename: filename, ContentType: reportContentType(format), Content: content}
	if dir := strings.TrimSpace(s.cfg.ExportDir); dir != "" {
		// 归档失败不影响下载
		if err := archiveReportFile(dir, file); err != nil {
			logger.FromContext(ctx).Warnw("banking_report_archive_failed", "dir", dir, "filename", filename, "error", err)
		}
	}
	return file, nil
}

func archiveReportFile(dir string, file *ReportFile) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, file.Filename), file.Content, 0o644)
}

// Dashboard 本周各转账状态汇总
func (s *BankingReportService) Dashboard(ctx context.Context) (*SettlementDashboard, error) {
	start := ISOWeekStart(s.now())
	end := start.AddDate(0, 0, 6)
	week := start.Format(models.BookingDayLayout)
	rows, err := s.settlementRepo.AggregateByStatus(week, week)
	if err != nil {
		return nil, err
	}
	dashboard := &SettlementDashboard{
		WeekStart: week,
		WeekEnd:   end.Format(models.BookingDayLayout),
		ByStatus: map[string]SettlementDashboardStatus{
			constants.SettlementStatusPending:   emptyDashboardStatus(),
			constants.SettlementStatusProcessed: emptyDashboardStatus(),
			constants.SettlementStatusComplete:  emptyDashboardStatus(),
		},
	}
	for _, row := range rows {
		dashboard.ByStatus[row.TransferStatus] = SettlementDashboardStatus{
			RecordCount:             row.RecordCount,
			TotalAmountTTC:          models.NewMoneyFromDecimal(row.TotalAmountTTC),
			CommissionAmountInclVat: models.NewMoneyFromDecimal(row.CommissionAmountInclVat),
			NetAmountTTC:            models.NewMoneyFromDecimal(row.NetAmountTTC),
		}
	}
	if settings, err := s.settings.Get(ctx); err == nil {
		dashboard.TransferProcessingDay = settings.TransferProcessingDay
		if weekday, err := ParseTransferDay(settings.TransferProcessingDay); err == nil {
			dashboard.NextTransferDate = nextWeekday(s.now(), weekday).Format(models.BookingDayLayout)
		}
	}
	return dashboard, nil
}

const (
	defaultSheetTitle  = "Settlements"
	maxSheetTitleRunes = 31
)

var sheetTitleReplacer = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", " ", "]", " ")

func (s *BankingReportService) sheetTitle() string {
	return sanitizeSheetTitle(s.cfg.SheetTitle)
}

// sanitizeSheetTitle 去掉 excel 工作表名禁止的字符并按字符（非字节）截断到 31 个
func sanitizeSheetTitle(raw string) string {
	title := strings.Trim(strings.TrimSpace(sheetTitleReplacer.Replace(raw)), "'")
	title = strings.TrimSpace(title)
	if runes := []rune(title); len(runes) > maxSheetTitleRunes {
		title = strings.TrimSpace(string(runes[:maxSheetTitleRunes]))
	}
	if title == "" {
		return defaultSheetTitle
	}
	return title
}

func emptyDashboardStatus() SettlementDashboardStatus {
	return SettlementDashboardStatus{
		TotalAmountTTC:          models.ZeroMoney(),
		CommissionAmountInclVat: models.ZeroMoney(),
		NetAmountTTC:            models.ZeroMoney(),
	}
}

// nextWeekday 返回从 now 起（含当天）的下一个指定星期几
func nextWeekday(now time.Time, weekday time.Weekday) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(weekday) - int(day.Weekday()) + 7) % 7
	return day.AddDate(0, 0, offset)
}

var reportHeader = []string{
	"Settlement ID",
	"Week",
	"Booking Reference",
	"Vendor",
	"Payment Type",
	"Total TTC",
	"Commission Rate",
	"Rate Source",
	"Commission Incl VAT",
	"Commission Excl VAT",
	"Commission VAT",
	"Net TTC",
	"Status",
	"Booking Date",
	"Payment Date",
	"Transfer Date",
	"Debit Account",
	"Credit Account",
}

func buildReportRows(records []models.SettlementRecord, debitAccount string) [][]string {
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		vendorName := ""
		if record.Vendor != nil {
			vendorName = record.Vendor.CompanyName
		}
		debit := record.DebitAccount
		if debit == "" {
			debit = debitAccount
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", record.ID),
			record.WeekStart,
			record.BookingReference,
			vendorName,
			record.PaymentType,
			record.TotalAmountTTC.String(),
			record.CommissionRateApplied.StringFixed(2),
			record.RateSource,
			record.CommissionAmountInclVat.String(),
			record.CommissionAmountExclVat.String(),
			record.CommissionVatAmount.String(),
			record.NetAmountTTC.String(),
			record.TransferStatus,
			formatReportDate(&record.BookingDate),
			formatReportDate(record.PaymentDate),
			formatReportDate(record.TransferDate),
			debit,
			record.CreditAccount,
		})
	}
	return rows
}

func formatReportDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(models.BookingDayLayout)
}

func renderReportCSV(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(reportHeader); err != nil {
		return nil, err
	}
	if err := writer.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderReportXLSX(title string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()
	if err := f.SetSheetName("Sheet1", title); err != nil {
		return nil, err
	}
	header := make([]interface{}, len(reportHeader))
	for i, name := range reportHeader {
		header[i] = name
	}
	if err := f.SetSheetRow(title, "A1", &header); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, value := range row {
			values[j] = value
		}
		if err := f.SetSheetRow(title, cell, &values); err != nil {
			return nil, err
		}
	}
	if err := f.SetPanes(title, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return nil, err
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func reportContentType(format string) string {
	if format == constants.ReportFormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
