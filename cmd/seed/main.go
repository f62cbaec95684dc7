package main

import (
	"context"
	"fmt"

	"github.com/blane-next/internal/authz"
	"github.com/blane-next/internal/config"
	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/logger"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/repository"
	"github.com/blane-next/internal/service"

	"github.com/shopspring/decimal"
)

func intPtr(v int) *int { return &v }

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}, false); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 管理员与内置角色
	if err := models.InitDefaultAdmin(cfg.Admin.Username, cfg.Admin.Password); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Fatalf("Failed to init authz: %v", err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Fatalf("Failed to bootstrap roles: %v", err)
	}

	// 全局佣金配置（首次读取时按配置默认值写入）
	settingsService := service.NewCommissionSettingsService(repository.NewCommissionSettingsRepository(models.DB), cfg.Settlement)
	settings, err := settingsService.Get(context.Background())
	if err != nil {
		stdLog.Fatalf("Failed to init commission settings: %v", err)
	}
	stdLog.Printf("Commission settings ready: vat=%s partial=%s day=%s",
		settings.VatRate.String(), settings.PartialPaymentCommissionRate.String(), settings.TransferProcessingDay)

	// 分类
	categories := []models.Category{
		{Slug: "restaurants", Name: "Restaurants", SortOrder: 1},
		{Slug: "spa-wellness", Name: "Spa & Bien-être", SortOrder: 2},
		{Slug: "activities", Name: "Activités", SortOrder: 3},
		{Slug: "stays", Name: "Hébergement", SortOrder: 4},
	}
	categoryIDs := map[string]uint{}
	for _, cat := range categories {
		var existing models.Category
		if err := models.DB.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
				continue
			}
			stdLog.Printf("Created category: %s", cat.Slug)
			categoryIDs[cat.Slug] = cat.ID
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
			categoryIDs[cat.Slug] = existing.ID
		}
	}

	// 商家
	vendors := []models.Vendor{
		{
			CompanyName: "Riad Dar Zitoune",
			Email:       "contact@darzitoune.ma",
			Phone:       "+212 524 00 00 01",
			Status:      constants.VendorStatusActive,
			BankName:    "Attijariwafa Bank",
			BankAccount: "007 450 0001234567890123 45",
		},
		{
			CompanyName:          "Hammam Atlas",
			Email:                "booking@hammam-atlas.ma",
			Phone:                "+212 522 00 00 02",
			Status:               constants.VendorStatusActive,
			BankName:             "BMCE Bank",
			BankAccount:          "011 780 0009876543210987 12",
			CustomCommissionRate: decimal.NewNullDecimal(decimal.RequireFromString("12.50")),
		},
		{
			CompanyName: "Quad Agafay",
			Email:       "hello@quad-agafay.ma",
			Status:      constants.VendorStatusActive,
			BankName:    "CIH Bank",
			BankAccount: "230 810 0004567891234567 89",
		},
	}
	vendorIDs := map[string]uint{}
	for _, vendor := range vendors {
		var existing models.Vendor
		if err := models.DB.Where("company_name = ?", vendor.CompanyName).First(&existing).Error; err != nil {
			if err := models.DB.Create(&vendor).Error; err != nil {
				stdLog.Printf("Failed to create vendor %s: %v", vendor.CompanyName, err)
				continue
			}
			stdLog.Printf("Created vendor: %s", vendor.CompanyName)
			vendorIDs[vendor.CompanyName] = vendor.ID
		} else {
			stdLog.Printf("Vendor already exists: %s", vendor.CompanyName)
			vendorIDs[vendor.CompanyName] = existing.ID
		}
	}

	// 优惠
	offers := []models.Offer{
		{
			VendorID:              vendorIDs["Riad Dar Zitoune"],
			CategoryID:            categoryIDs["stays"],
			Title:                 "Nuit en suite avec petit-déjeuner",
			Price:                 models.MustMoney("1200.00"),
			DailyCapacity:         intPtr(4),
			MaxQuantityPerBooking: intPtr(2),
			AllowsPartialPayment:  true,
			PartialPaymentPercent: decimal.RequireFromString("30"),
			IsActive:              true,
		},
		{
			VendorID:              vendorIDs["Hammam Atlas"],
			CategoryID:            categoryIDs["spa-wellness"],
			Title:                 "Hammam traditionnel et gommage",
			Price:                 models.MustMoney("350.00"),
			DailyCapacity:         intPtr(20),
			MaxQuantityPerBooking: intPtr(4),
			IsActive:              true,
		},
		{
			VendorID:   vendorIDs["Quad Agafay"],
			CategoryID: categoryIDs["activities"],
			Title:      "Balade en quad au coucher du soleil",
			Price:      models.MustMoney("500.00"),
			IsActive:   true,
		},
	}
	for _, offer := range offers {
		if offer.VendorID == 0 || offer.CategoryID == 0 {
			stdLog.Printf("Skip offer without vendor/category: %s", offer.Title)
			continue
		}
		var existing models.Offer
		if err := models.DB.Where("title = ? AND vendor_id = ?", offer.Title, offer.VendorID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&offer).Error; err != nil {
				stdLog.Printf("Failed to create offer %s: %v", offer.Title, err)
			} else {
				stdLog.Printf("Created offer: %s", offer.Title)
			}
		} else {
			stdLog.Printf("Offer already exists: %s", offer.Title)
		}
	}

	// 分类默认佣金率与一条商家覆盖
	atlasID := vendorIDs["Hammam Atlas"]
	rates := []models.CommissionRate{
		{CategoryID: categoryIDs["restaurants"], CommissionRate: decimal.RequireFromString("10"), IsActive: true},
		{CategoryID: categoryIDs["spa-wellness"], CommissionRate: decimal.RequireFromString("15"), IsActive: true},
		{CategoryID: categoryIDs["activities"], CommissionRate: decimal.RequireFromString("18"), IsActive: true},
		{
			CategoryID:            categoryIDs["stays"],
			CommissionRate:        decimal.RequireFromString("12"),
			PartialCommissionRate: decimal.NewNullDecimal(decimal.RequireFromString("8")),
			IsActive:              true,
		},
		{CategoryID: categoryIDs["spa-wellness"], VendorID: &atlasID, CommissionRate: decimal.RequireFromString("13"), IsActive: true},
	}
	for _, rate := range rates {
		if rate.CategoryID == 0 || (rate.VendorID != nil && *rate.VendorID == 0) {
			continue
		}
		rate.SyncActiveKey()
		var existing models.CommissionRate
		if err := models.DB.Where("active_key = ?", *rate.ActiveKey).First(&existing).Error; err == nil {
			stdLog.Printf("Commission rate already exists: %s", *rate.ActiveKey)
			continue
		}
		if err := models.DB.Create(&rate).Error; err != nil {
			stdLog.Printf("Failed to create commission rate %s: %v", *rate.ActiveKey, err)
		} else {
			stdLog.Printf("Created commission rate: %s", *rate.ActiveKey)
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- Default admin + built-in roles")
	fmt.Println("- Commission settings")
	fmt.Println("- 4 Categories")
	fmt.Println("- 3 Vendors (1 with custom rate)")
	fmt.Println("- 3 Offers")
	fmt.Println("- 5 Commission rates (4 defaults + 1 vendor override)")
}
