package service

import (
	"testing"
	"time"

	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/models"

	"github.com/shopspring/decimal"
)

func TestComputeSettlementAmounts(t *testing.T) {
	amounts := ComputeSettlementAmounts(models.MustMoney("1000.00"), decimal.NewFromInt(10), decimal.NewFromInt(20))
	if amounts.CommissionInclVat.String() != "100.00" {
		t.Fatalf("commission incl vat = %s", amounts.CommissionInclVat)
	}
	if amounts.CommissionExclVat.String() != "83.33" || amounts.CommissionVat.String() != "16.67" {
		t.Fatalf("vat split = %s + %s", amounts.CommissionExclVat, amounts.CommissionVat)
	}
	if amounts.Net.String() != "900.00" {
		t.Fatalf("net = %s", amounts.Net)
	}
}

func TestComputeSettlementAmountsInvariant(t *testing.T) {
	totals := []string{"0.00", "0.01", "19.99", "333.33", "1000.00", "98765.43"}
	rates := []string{"0", "2.5", "10", "12", "33.33", "100"}
	vats := []string{"0", "10", "20"}
	for _, total := range totals {
		for _, rate := range rates {
			for _, vat := range vats {
				amounts := ComputeSettlementAmounts(models.MustMoney(total), decimal.RequireFromString(rate), decimal.RequireFromString(vat))
				sum := amounts.Net.Add(amounts.CommissionInclVat)
				if !sum.Decimal.Equal(models.MustMoney(total).Decimal) {
					t.Fatalf("total=%s rate=%s vat=%s: net+commission=%s", total, rate, vat, sum)
				}
				split := amounts.CommissionExclVat.Add(amounts.CommissionVat)
				if !split.Decimal.Equal(amounts.CommissionInclVat.Decimal) {
					t.Fatalf("total=%s rate=%s vat=%s: excl+vat=%s incl=%s", total, rate, vat, split, amounts.CommissionInclVat)
				}
				if amounts.Net.Decimal.IsNegative() {
					t.Fatalf("total=%s rate=%s: negative net %s", total, rate, amounts.Net)
				}
			}
		}
	}
}

func TestBuildSettlementRecordForReservation(t *testing.T) {
	paidAt := time.Date(2026, 3, 12, 15, 30, 0, 0, time.Local)
	override := decimal.NewNullDecimal(decimal.NewFromInt(7))
	record := BuildSettlementRecord(SettlementDraft{
		Kind:      constants.BookingKindReservation,
		BookingID: 42,
		Booking: models.BookingFields{
			VendorID:       3,
			CategoryID:     4,
			Reference:      "RES-20260310-ABCDEF01",
			BookingDay:     "2026-03-10",
			TotalAmountTTC: models.MustMoney("250.00"),
		},
		PaymentType:  constants.PaymentTypeFull,
		PaymentDate:  paidAt,
		Resolution:   RateResolution{Rate: decimal.NewFromInt(10), Source: constants.RateSourceCategoryDefault},
		VatRate:      decimal.NewFromInt(20),
		Vendor:       &models.Vendor{BankAccount: "RIB-V3", CustomCommissionRate: override},
		DebitAccount: "PLATFORM-RIB",
	})
	if record.ReservationID == nil || *record.ReservationID != 42 || record.OrderID != nil {
		t.Fatalf("expected reservation link, got order=%v reservation=%v", record.OrderID, record.ReservationID)
	}
	if record.WeekStart != "2026-03-09" {
		t.Fatalf("week start = %s", record.WeekStart)
	}
	if record.TransferStatus != constants.SettlementStatusPending {
		t.Fatalf("status = %s", record.TransferStatus)
	}
	if record.CreditAccount != "RIB-V3" || record.DebitAccount != "PLATFORM-RIB" {
		t.Fatalf("accounts = %s -> %s", record.DebitAccount, record.CreditAccount)
	}
	if !record.VendorOverrideRate.Valid || !record.VendorOverrideRate.Decimal.Equal(override.Decimal) {
		t.Fatalf("vendor override rate should be snapshotted")
	}
	if record.NetAmountTTC.String() != "225.00" || record.CommissionAmountInclVat.String() != "25.00" {
		t.Fatalf("amounts = %s / %s", record.CommissionAmountInclVat, record.NetAmountTTC)
	}
}
