package service

import (
	"time"

	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/models"

	"github.com/shopspring/decimal"
)

// SettlementAmounts 结算金额拆分
type SettlementAmounts struct {
	CommissionInclVat models.Money
	CommissionExclVat models.Money
	CommissionVat     models.Money
	Net               models.Money
}

// ComputeSettlementAmounts 按含税总额与佣金率计算佣金及商家净额
// 佣金率直接作用于含税总额；增值税率仅用于拆分佣金的税额部分。
func ComputeSettlementAmounts(total models.Money, rate, vatRate decimal.Decimal) SettlementAmounts {
	inclVat := total.Percent(rate)
	divisor := decimal.NewFromInt(1).Add(vatRate.Div(decimal.NewFromInt(100)))
	exclVat := inclVat
	if divisor.IsPositive() {
		exclVat = models.NewMoneyFromDecimal(inclVat.Decimal.Div(divisor))
	}
	return SettlementAmounts{
		CommissionInclVat: inclVat,
		CommissionExclVat: exclVat,
		CommissionVat:     inclVat.Sub(exclVat),
		Net:               total.Sub(inclVat),
	}
}

// SettlementDraft 生成结算记录所需的预订快照
type SettlementDraft struct {
	Kind         string
	BookingID    uint
	Booking      models.BookingFields
	PaymentType  string
	PaymentDate  time.Time
	Resolution   RateResolution
	VatRate      decimal.Decimal
	Vendor       *models.Vendor
	DebitAccount string
	AdminID      *uint
}

// BuildSettlementRecord 由预订快照构建结算记录（费率与金额一次性快照）
func BuildSettlementRecord(draft SettlementDraft) *models.SettlementRecord {
	amounts := ComputeSettlementAmounts(draft.Booking.TotalAmountTTC, draft.Resolution.Rate, draft.VatRate)
	bookingDate := draft.PaymentDate
	if day, err := ParseDay(draft.Booking.BookingDay); err == nil {
		bookingDate = day
	}
	paymentDate := draft.PaymentDate

	record := &models.SettlementRecord{
		VendorID:                draft.Booking.VendorID,
		CategoryID:              draft.Booking.CategoryID,
		BookingReference:        draft.Booking.Reference,
		PaymentType:             draft.PaymentType,
		TotalAmountTTC:          draft.Booking.TotalAmountTTC,
		CommissionRateApplied:   draft.Resolution.Rate.Round(2),
		RateSource:              draft.Resolution.Source,
		VatRateApplied:          draft.VatRate.Round(2),
		CommissionAmountInclVat: amounts.CommissionInclVat,
		CommissionAmountExclVat: amounts.CommissionExclVat,
		CommissionVatAmount:     amounts.CommissionVat,
		NetAmountTTC:            amounts.Net,
		TransferStatus:          constants.SettlementStatusPending,
		BookingDate:             bookingDate,
		PaymentDate:             &paymentDate,
		WeekStart:               WeekBucket(bookingDate, &paymentDate),
		DebitAccount:            draft.DebitAccount,
		UpdatedBy:               draft.AdminID,
	}
	if draft.Vendor != nil {
		record.VendorOverrideRate = draft.Vendor.CustomCommissionRate
		record.CreditAccount = draft.Vendor.BankAccount
	}
	bookingID := draft.BookingID
	if draft.Kind == constants.BookingKindReservation {
		record.ReservationID = &bookingID
	} else {
		record.OrderID = &bookingID
	}
	return record
}

// settlementSnapshotFields 审计日志快照包含的字段
var settlementSnapshotFields = []string{
	"transfer_status",
	"booking_date",
	"payment_date",
	"transfer_date",
	"week_start",
	"debit_account",
	"credit_account",
	"reason",
}

// snapshotSettlement 截取结算记录指定字段用于审计
func snapshotSettlement(record *models.SettlementRecord, fields []string) models.JSON {
	if len(fields) == 0 {
		fields = settlementSnapshotFields
	}
	snapshot := make(models.JSON, len(fields))
	for _, field := range fields {
		switch field {
		case "transfer_status":
			snapshot[field] = record.TransferStatus
		case "booking_date":
			snapshot[field] = formatSnapshotTime(&record.BookingDate)
		case "payment_date":
			snapshot[field] = formatSnapshotTime(record.PaymentDate)
		case "transfer_date":
			snapshot[field] = formatSnapshotTime(record.TransferDate)
		case "week_start":
			snapshot[field] = record.WeekStart
		case "debit_account":
			snapshot[field] = record.DebitAccount
		case "credit_account":
			snapshot[field] = record.CreditAccount
		case "reason":
			snapshot[field] = record.Reason
		case "commission_rate_applied":
			snapshot[field] = record.CommissionRateApplied.String()
		case "commission_amount_incl_vat":
			snapshot[field] = record.CommissionAmountInclVat.String()
		case "net_amount_ttc":
			snapshot[field] = record.NetAmountTTC.String()
		case "total_amount_ttc":
			snapshot[field] = record.TotalAmountTTC.String()
		case "rate_source":
			snapshot[field] = record.RateSource
		}
	}
	return snapshot
}

func formatSnapshotTime(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}
