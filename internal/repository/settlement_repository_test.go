package repository

import (
	"testing"
	"time"

	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/models"

	"github.com/shopspring/decimal"
)

func createSettlementRow(t *testing.T, repo *GormSettlementRepository, vendorID uint, ref, week, status string, total, commission string) *models.SettlementRecord {
	t.Helper()
	totalAmount := models.MustMoney(total)
	commissionAmount := models.MustMoney(commission)
	record := &models.SettlementRecord{
		VendorID:                vendorID,
		CategoryID:              1,
		BookingReference:        ref,
		PaymentType:             constants.PaymentTypeFull,
		TotalAmountTTC:          totalAmount,
		CommissionRateApplied:   decimal.NewFromInt(10),
		RateSource:              constants.RateSourceCategoryDefault,
		CommissionAmountInclVat: commissionAmount,
		NetAmountTTC:            totalAmount.Sub(commissionAmount),
		TransferStatus:          status,
		BookingDate:             time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		WeekStart:               week,
	}
	if err := repo.Create(record); err != nil {
		t.Fatalf("create settlement failed: %v", err)
	}
	return record
}

func TestSettlementAggregateByVendor(t *testing.T) {
	db := setupRepositoryTestDB(t, "settlement_aggregate")
	repo := NewSettlementRepository(db)

	createSettlementRow(t, repo, 1, "ORD-A", "2026-03-02", constants.SettlementStatusPending, "1000.00", "100.00")
	createSettlementRow(t, repo, 1, "ORD-B", "2026-03-02", constants.SettlementStatusProcessed, "250.50", "25.05")
	createSettlementRow(t, repo, 2, "ORD-C", "2026-03-02", constants.SettlementStatusComplete, "80.00", "8.00")
	createSettlementRow(t, repo, 2, "ORD-D", "2026-03-16", constants.SettlementStatusPending, "999.00", "99.90")

	rows, err := repo.AggregateByVendor("2026-03-02", "2026-03-08")
	if err != nil {
		t.Fatalf("aggregate by vendor failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("aggregate rows want 2 got %d", len(rows))
	}
	first := rows[0]
	if first.VendorID != 1 || first.RecordCount != 2 || first.PendingCount != 1 || first.ProcessedCount != 1 {
		t.Fatalf("vendor 1 aggregate mismatch: %+v", first)
	}
	if !first.TotalAmountTTC.Round(2).Equal(decimal.RequireFromString("1250.50")) {
		t.Fatalf("vendor 1 total want 1250.50 got %s", first.TotalAmountTTC)
	}
	if !first.NetAmountTTC.Round(2).Equal(decimal.RequireFromString("1125.45")) {
		t.Fatalf("vendor 1 net want 1125.45 got %s", first.NetAmountTTC)
	}
	if rows[1].CompleteCount != 1 || rows[1].RecordCount != 1 {
		t.Fatalf("vendor 2 aggregate mismatch: %+v", rows[1])
	}

	statusRows, err := repo.AggregateByStatus("2026-03-02", "2026-03-08")
	if err != nil {
		t.Fatalf("aggregate by status failed: %v", err)
	}
	if len(statusRows) != 3 {
		t.Fatalf("status rows want 3 got %d", len(statusRows))
	}
}

func TestSettlementListFilters(t *testing.T) {
	db := setupRepositoryTestDB(t, "settlement_list")
	repo := NewSettlementRepository(db)

	createSettlementRow(t, repo, 1, "ORD-AAA", "2026-03-02", constants.SettlementStatusPending, "10.00", "1.00")
	createSettlementRow(t, repo, 1, "RES-BBB", "2026-03-09", constants.SettlementStatusPending, "10.00", "1.00")
	createSettlementRow(t, repo, 2, "ORD-CCC", "2026-03-09", constants.SettlementStatusComplete, "10.00", "1.00")

	rows, total, err := repo.List(SettlementListFilter{Page: 1, PageSize: 10, TransferStatus: constants.SettlementStatusPending})
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if total != 2 || len(rows) != 2 {
		t.Fatalf("pending want 2 got total=%d len=%d", total, len(rows))
	}

	rows, total, err = repo.List(SettlementListFilter{Page: 1, PageSize: 10, Search: "RES", WeekFrom: "2026-03-09"})
	if err != nil {
		t.Fatalf("list search failed: %v", err)
	}
	if total != 1 || rows[0].BookingReference != "RES-BBB" {
		t.Fatalf("search want RES-BBB got total=%d", total)
	}

	rows, total, err = repo.List(SettlementListFilter{Page: 1, PageSize: 10, VendorID: 99})
	if err != nil {
		t.Fatalf("list empty failed: %v", err)
	}
	if total != 0 || rows == nil || len(rows) != 0 {
		t.Fatalf("empty list should be non-nil and empty, got total=%d rows=%v", total, rows)
	}
}
