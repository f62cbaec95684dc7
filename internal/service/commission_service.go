package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/logger"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RateResolver 佣金费率解析接口
type RateResolver interface {
	Resolve(ctx context.Context, vendorID, categoryID uint, paymentType string) (*RateResolution, error)
}

// RateResolution 费率解析结果
type RateResolution struct {
	Rate        decimal.Decimal `json:"rate"`
	Source      string          `json:"source"`
	RateID      *uint           `json:"rate_id,omitempty"`
	PaymentType string          `json:"payment_type"`
}

// CommissionService 佣金费率服务（解析 + 后台管理）
type CommissionService struct {
	rateRepo     repository.CommissionRateRepository
	vendorRepo   repository.VendorRepository
	categoryRepo repository.CategoryRepository
	settings     *CommissionSettingsService
}

// NewCommissionService 创建佣金费率服务
func NewCommissionService(
	rateRepo repository.CommissionRateRepository,
	vendorRepo repository.VendorRepository,
	categoryRepo repository.CategoryRepository,
	settings *CommissionSettingsService,
) *CommissionService {
	return &CommissionService{
		rateRepo:     rateRepo,
		vendorRepo:   vendorRepo,
		categoryRepo: categoryRepo,
		settings:     settings,
	}
}

// NormalizePaymentType 规范化支付类型，空值按全额处理
func NormalizePaymentType(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", constants.PaymentTypeFull:
		return constants.PaymentTypeFull, nil
	case constants.PaymentTypePartial:
		return constants.PaymentTypePartial, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidPaymentType, raw)
	}
}

// Resolve 解析生效佣金率：商家覆盖 -> 分类默认 -> 全局兜底（仅部分支付）
func (s *CommissionService) Resolve(ctx context.Context, vendorID, categoryID uint, paymentType string) (*RateResolution, error) {
	paymentType, err := NormalizePaymentType(paymentType)
	if err != nil {
		return nil, err
	}

	if vendorID != 0 {
		override, err := s.rateRepo.FindActive(categoryID, &vendorID)
		if err != nil {
			return nil, err
		}
		if override != nil {
			return tierResolution(override, paymentType, constants.RateSourceVendorOverride), nil
		}
	}

	categoryDefault, err := s.rateRepo.FindActive(categoryID, nil)
	if err != nil {
		return nil, err
	}
	if categoryDefault != nil {
		return tierResolution(categoryDefault, paymentType, constants.RateSourceCategoryDefault), nil
	}

	if paymentType != constants.PaymentTypePartial {
		return nil, fmt.Errorf("%w: vendor %d category %d", ErrCommissionRateNotConfigured, vendorID, categoryID)
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return &RateResolution{
		Rate:        settings.PartialPaymentCommissionRate,
		Source:      constants.RateSourceGlobalFallback,
		PaymentType: paymentType,
	}, nil
}

func tierResolution(rate *models.CommissionRate, paymentType, source string) *RateResolution {
	value := rate.CommissionRate
	if paymentType == constants.PaymentTypePartial && rate.PartialCommissionRate.Valid {
		value = rate.PartialCommissionRate.Decimal
	}
	id := rate.ID
	return &RateResolution{Rate: value, Source: source, RateID: &id, PaymentType: paymentType}
}

// CreateCommissionRateInput 创建费率输入
type CreateCommissionRateInput struct {
	CategoryID            uint
	VendorID              *uint
	CommissionRate        decimal.Decimal
	PartialCommissionRate *decimal.Decimal
	IsActive              *bool
}

// UpdateCommissionRateInput 更新费率输入（空字段不修改）
type UpdateCommissionRateInput struct {
	CommissionRate        *decimal.Decimal
	PartialCommissionRate *decimal.Decimal
	ClearPartialRate      bool
	IsActive              *bool
}

// ListRates 费率列表
func (s *CommissionService) ListRates(filter repository.CommissionRateListFilter) ([]models.CommissionRate, int64, error) {
	return s.rateRepo.List(filter)
}

// GetRate 费率详情
func (s *CommissionService) GetRate(id uint) (*models.CommissionRate, error) {
	rate, err := s.rateRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if rate == nil {
		return nil, ErrCommissionRateNotFound
	}
	return rate, nil
}

// CreateRate 创建费率；生效时在同一事务内停用该 (分类, 商家) 的旧费率
func (s *CommissionService) CreateRate(adminID uint, input CreateCommissionRateInput) (*models.CommissionRate, error) {
	if err := validatePercent(input.CommissionRate); err != nil {
		return nil, err
	}
	if input.PartialCommissionRate != nil {
		if err := validatePercent(*input.PartialCommissionRate); err != nil {
			return nil, err
		}
	}
	if err := s.ensurePairExists(input.CategoryID, input.VendorID); err != nil {
		return nil, err
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	rate := &models.CommissionRate{
		CategoryID:     input.CategoryID,
		VendorID:       normalizeVendorID(input.VendorID),
		CommissionRate: input.CommissionRate.Round(2),
		IsActive:       active,
	}
	if input.PartialCommissionRate != nil {
		rate.PartialCommissionRate = decimal.NewNullDecimal(input.PartialCommissionRate.Round(2))
	}
	if adminID != 0 {
		rate.UpdatedBy = &adminID
	}

	err := s.rateRepo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.rateRepo.WithTx(tx)
		if rate.IsActive {
			if err := deactivatePriorRate(repoTx, rate.CategoryID, rate.VendorID, 0, rate.UpdatedBy); err != nil {
				return err
			}
		}
		return repoTx.Create(rate)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCommissionRateConflict
		}
		return nil, err
	}
	logger.Infow("commission_rate_created",
		"rate_id", rate.ID,
		"category_id", rate.CategoryID,
		"vendor_id", rate.VendorID,
		"commission_rate", rate.CommissionRate.String(),
		"admin_id", adminID,
	)
	return rate, nil
}

// UpdateRate 更新费率；重新启用时同样停用同组旧费率
func (s *CommissionService) UpdateRate(adminID, id uint, input UpdateCommissionRateInput) (*models.CommissionRate, error) {
	if input.CommissionRate != nil {
		if err := validatePercent(*input.CommissionRate); err != nil {
			return nil, err
		}
	}
	if input.PartialCommissionRate != nil {
		if err := validatePercent(*input.PartialCommissionRate); err != nil {
			return nil, err
		}
	}

	var updated *models.CommissionRate
	err := s.rateRepo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.rateRepo.WithTx(tx)
		rate, err := repoTx.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if rate == nil {
			return ErrCommissionRateNotFound
		}
		if input.CommissionRate != nil {
			rate.CommissionRate = input.CommissionRate.Round(2)
		}
		if input.ClearPartialRate {
			rate.PartialCommissionRate = decimal.NullDecimal{}
		} else if input.PartialCommissionRate != nil {
			rate.PartialCommissionRate = decimal.NewNullDecimal(input.PartialCommissionRate.Round(2))
		}
		if adminID != 0 {
			rate.UpdatedBy = &adminID
		}
		if input.IsActive != nil {
			if *input.IsActive && !rate.IsActive {
				if err := deactivatePriorRate(repoTx, rate.CategoryID, rate.VendorID, rate.ID, rate.UpdatedBy); err != nil {
					return err
				}
			}
			rate.IsActive = *input.IsActive
		}
		if err := repoTx.Update(rate); err != nil {
			return err
		}
		updated = rate
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCommissionRateConflict
		}
		return nil, err
	}
	return updated, nil
}

// DeactivateRate 停用费率（不物理删除）
func (s *CommissionService) DeactivateRate(adminID, id uint) (*models.CommissionRate, error) {
	inactive := false
	return s.UpdateRate(adminID, id, UpdateCommissionRateInput{IsActive: &inactive})
}

func deactivatePriorRate(repo repository.CommissionRateRepository, categoryID uint, vendorID *uint, excludeID uint, adminID *uint) error {
	prior, err := repo.FindActiveForUpdate(categoryID, vendorID)
	if err != nil {
		return err
	}
	if prior == nil || prior.ID == excludeID {
		return nil
	}
	prior.IsActive = false
	prior.UpdatedBy = adminID
	return repo.Update(prior)
}

func (s *CommissionService) ensurePairExists(categoryID uint, vendorID *uint) error {
	category, err := s.categoryRepo.GetByID(categoryID)
	if err != nil {
		return err
	}
	if category == nil {
		return ErrCategoryNotFound
	}
	if vendorID != nil && *vendorID != 0 {
		vendor, err := s.vendorRepo.GetByID(*vendorID)
		if err != nil {
			return err
		}
		if vendor == nil {
			return ErrVendorNotFound
		}
	}
	return nil
}

func normalizeVendorID(vendorID *uint) *uint {
	if vendorID == nil || *vendorID == 0 {
		return nil
	}
	id := *vendorID
	return &id
}

// EffectiveCategoryRate 单个分类下商家可见的各层费率
type EffectiveCategoryRate struct {
	CategoryID                 uint                `json:"category_id"`
	CategoryName               string              `json:"category_name"`
	VendorOverrideRate         decimal.NullDecimal `json:"vendor_override_rate"`
	VendorOverridePartialRate  decimal.NullDecimal `json:"vendor_override_partial_rate"`
	CategoryDefaultRate        decimal.NullDecimal `json:"category_default_rate"`
	CategoryDefaultPartialRate decimal.NullDecimal `json:"category_default_partial_rate"`
	ResolvedFull               *RateResolution     `json:"resolved_full"`
	ResolvedPartial            *RateResolution     `json:"resolved_partial"`
	FullRateMissing            bool                `json:"full_rate_missing"`
}

// VendorEffectiveRates 商家生效费率总览（各层并列展示，不做合并）
type VendorEffectiveRates struct {
	VendorID             uint                    `json:"vendor_id"`
	CompanyName          string                  `json:"company_name"`
	CustomCommissionRate decimal.NullDecimal     `json:"custom_commission_rate"`
	GlobalFallbackRate   decimal.Decimal         `json:"global_fallback_rate"`
	Categories           []EffectiveCategoryRate `json:"categories"`
}

// EffectiveRates 商家在每个分类下的费率并列视图
func (s *CommissionService) EffectiveRates(ctx context.Context, vendorID uint) (*VendorEffectiveRates, error) {
	vendor, err := s.vendorRepo.GetByID(vendorID)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, ErrVendorNotFound
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.List()
	if err != nil {
		return nil, err
	}
	overrides, err := s.rateRepo.ListActiveByVendor(vendorID)
	if err != nil {
		return nil, err
	}
	defaults, err := s.rateRepo.ListActiveDefaults()
	if err != nil {
		return nil, err
	}
	overrideByCategory := make(map[uint]models.CommissionRate, len(overrides))
	for _, row := range overrides {
		overrideByCategory[row.CategoryID] = row
	}
	defaultByCategory := make(map[uint]models.CommissionRate, len(defaults))
	for _, row := range defaults {
		defaultByCategory[row.CategoryID] = row
	}

	result := &VendorEffectiveRates{
		VendorID:             vendor.ID,
		CompanyName:          vendor.CompanyName,
		CustomCommissionRate: vendor.CustomCommissionRate,
		GlobalFallbackRate:   settings.PartialPaymentCommissionRate,
		Categories:           make([]EffectiveCategoryRate, 0, len(categories)),
	}
	for _, category := range categories {
		item := EffectiveCategoryRate{CategoryID: category.ID, CategoryName: category.Name}
		if row, ok := overrideByCategory[category.ID]; ok {
			item.VendorOverrideRate = decimal.NewNullDecimal(row.CommissionRate)
			item.VendorOverridePartialRate = row.PartialCommissionRate
		}
		if row, ok := defaultByCategory[category.ID]; ok {
			item.CategoryDefaultRate = decimal.NewNullDecimal(row.CommissionRate)
			item.CategoryDefaultPartialRate = row.PartialCommissionRate
		}
		full, err := s.Resolve(ctx, vendor.ID, category.ID, constants.PaymentTypeFull)
		switch {
		case errors.Is(err, ErrCommissionRateNotConfigured):
			item.FullRateMissing = true
		case err != nil:
			return nil, err
		default:
			item.ResolvedFull = full
		}
		partial, err := s.Resolve(ctx, vendor.ID, category.ID, constants.PaymentTypePartial)
		if err != nil {
			return nil, err
		}
		item.ResolvedPartial = partial
		result.Categories = append(result.Categories, item)
	}
	return result, nil
}

// UpdateVendorCustomRate 设置或清除商家自定义佣金率
func (s *CommissionService) UpdateVendorCustomRate(adminID, vendorID uint, rate *decimal.Decimal) (*models.Vendor, error) {
	vendor, err := s.vendorRepo.GetByID(vendorID)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, ErrVendorNotFound
	}
	value := decimal.NullDecimal{}
	if rate != nil {
		if err := validatePercent(*rate); err != nil {
			return nil, err
		}
		value = decimal.NewNullDecimal(rate.Round(2))
	}
	if err := s.vendorRepo.UpdateCustomCommissionRate(vendorID, value); err != nil {
		return nil, err
	}
	logger.Infow("vendor_custom_commission_rate_updated",
		"vendor_id", vendorID,
		"rate", nullDecimalString(value),
		"admin_id", adminID,
	)
	vendor.CustomCommissionRate = value
	return vendor, nil
}

func nullDecimalString(value decimal.NullDecimal) string {
	if !value.Valid {
		return ""
	}
	return value.Decimal.String()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
