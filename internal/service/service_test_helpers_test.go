package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/blane-next/internal/config"
	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type serviceTestEnv struct {
	db             *gorm.DB
	vendorRepo     *repository.GormVendorRepository
	categoryRepo   *repository.GormCategoryRepository
	offerRepo      *repository.GormOfferRepository
	bookingRepo    *repository.GormBookingRepository
	settlementRepo *repository.GormSettlementRepository
	rateRepo       *repository.GormCommissionRateRepository
	settings       *CommissionSettingsService
	commission     *CommissionService
	admission      *AdmissionService
	settlements    *SettlementService
	bookings       *BookingService
	reports        *BankingReportService
}

func setupServiceTestEnv(t *testing.T, name string) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db failed: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.MigrateWith(db); err != nil {
		t.Fatalf("migrate models failed: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	env := &serviceTestEnv{
		db:             db,
		vendorRepo:     repository.NewVendorRepository(db),
		categoryRepo:   repository.NewCategoryRepository(db),
		offerRepo:      repository.NewOfferRepository(db),
		bookingRepo:    repository.NewBookingRepository(db),
		settlementRepo: repository.NewSettlementRepository(db),
		rateRepo:       repository.NewCommissionRateRepository(db),
	}
	env.settings = NewCommissionSettingsService(repository.NewCommissionSettingsRepository(db), config.SettlementConfig{
		PartialPaymentCommissionRate: "12",
		VatRate:                      "20",
		BankName:                     "Platform Bank",
		BankAccount:                  "PLATFORM-RIB",
		TransferProcessingDay:        "monday",
		FinanceEmail:                 "finance@example.com",
	})
	env.commission = NewCommissionService(env.rateRepo, env.vendorRepo, env.categoryRepo, env.settings)
	env.admission = NewAdmissionService(env.offerRepo, env.bookingRepo)
	env.settlements = NewSettlementService(env.settlementRepo, nil)
	env.bookings = NewBookingService(BookingServiceDeps{
		OfferRepo:      env.offerRepo,
		BookingRepo:    env.bookingRepo,
		SettlementRepo: env.settlementRepo,
		VendorRepo:     env.vendorRepo,
		Admission:      env.admission,
		Resolver:       env.commission,
		Settings:       env.settings,
		Settlements:    env.settlements,
	})
	env.reports = NewBankingReportService(env.settlementRepo, env.vendorRepo, env.settings, config.ReportConfig{})
	env.settlements.now = testNow
	env.bookings.now = testNow
	env.reports.now = testNow
	return env
}

func (env *serviceTestEnv) createCategory(t *testing.T, slug string) *models.Category {
	t.Helper()
	category := &models.Category{Slug: slug, Name: slug}
	if err := env.categoryRepo.Create(category); err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return category
}

func (env *serviceTestEnv) createVendor(t *testing.T, name string) *models.Vendor {
	t.Helper()
	vendor := &models.Vendor{
		CompanyName: name,
		Email:       name + "@example.com",
		Status:      constants.VendorStatusActive,
		BankAccount: "RIB-" + name,
	}
	if err := env.vendorRepo.Create(vendor); err != nil {
		t.Fatalf("create vendor failed: %v", err)
	}
	return vendor
}

func (env *serviceTestEnv) createOffer(t *testing.T, vendor *models.Vendor, category *models.Category, price string, capacity *int) *models.Offer {
	t.Helper()
	offer := &models.Offer{
		VendorID:              vendor.ID,
		CategoryID:            category.ID,
		Title:                 "offer",
		Price:                 models.MustMoney(price),
		DailyCapacity:         capacity,
		AllowsPartialPayment:  true,
		PartialPaymentPercent: decimal.NewFromInt(30),
		IsActive:              true,
	}
	if err := env.offerRepo.Create(offer); err != nil {
		t.Fatalf("create offer failed: %v", err)
	}
	return offer
}

func (env *serviceTestEnv) createRate(t *testing.T, categoryID uint, vendorID *uint, rate string) *models.CommissionRate {
	t.Helper()
	created, err := env.commission.CreateRate(1, CreateCommissionRateInput{
		CategoryID:     categoryID,
		VendorID:       vendorID,
		CommissionRate: decimal.RequireFromString(rate),
	})
	if err != nil {
		t.Fatalf("create rate failed: %v", err)
	}
	return created
}

// createPaidOrder 创建订单并确认支付，返回生成的结算记录
func (env *serviceTestEnv) createPaidOrder(t *testing.T, offer *models.Offer, day string, quantity int, paymentType string) *models.SettlementRecord {
	t.Helper()
	order, err := env.bookings.CreateOrder(testContext(), CreateBookingInput{
		OfferID:     offer.ID,
		Day:         day,
		Quantity:    quantity,
		PaymentType: paymentType,
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	result, err := env.bookings.ConfirmPayment(testContext(), ConfirmPaymentInput{
		Kind: constants.BookingKindOrder,
		ID:   order.ID,
	})
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	return result.Settlement
}

func intPtr(v int) *int {
	return &v
}

func uintPtr(v uint) *uint {
	return &v
}

func testContext() context.Context {
	return context.Background()
}

func testNow() time.Time {
	return time.Date(2026, 3, 11, 10, 0, 0, 0, time.Local)
}
