package repository

import (
	"errors"

	"github.com/blane-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// VendorRepository 商家数据访问接口
type VendorRepository interface {
	GetByID(id uint) (*models.Vendor, error)
	ListByIDs(ids []uint) ([]models.Vendor, error)
	Create(vendor *models.Vendor) error
	UpdateCustomCommissionRate(id uint, rate decimal.NullDecimal) error
	WithTx(tx *gorm.DB) VendorRepository
}

// GormVendorRepository GORM 实现
type GormVendorRepository struct {
	db *gorm.DB
}

// NewVendorRepository 创建商家仓库
func NewVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// WithTx 绑定事务
func (r *GormVendorRepository) WithTx(tx *gorm.DB) VendorRepository {
	if tx == nil {
		return r
	}
	return &GormVendorRepository{db: tx}
}

// GetByID 根据 ID 获取商家
func (r *GormVendorRepository) GetByID(id uint) (*models.Vendor, error) {
	if id == 0 {
		return nil, nil
	}
	var vendor models.Vendor
	if err := r.db.First(&vendor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vendor, nil
}

// ListByIDs 批量获取商家
func (r *GormVendorRepository) ListByIDs(ids []uint) ([]models.Vendor, error) {
	vendors := make([]models.Vendor, 0, len(ids))
	if len(ids) == 0 {
		return vendors, nil
	}
	if err := r.db.Where("id IN ?", ids).Order("id asc").Find(&vendors).Error; err != nil {
		return nil, err
	}
	return vendors, nil
}

// Create 创建商家
func (r *GormVendorRepository) Create(vendor *models.Vendor) error {
	return r.db.Create(vendor).Error
}

// UpdateCustomCommissionRate 更新商家自定义佣金率（Valid=false 时清空）
func (r *GormVendorRepository) UpdateCustomCommissionRate(id uint, rate decimal.NullDecimal) error {
	return r.db.Model(&models.Vendor{}).Where("id = ?", id).Update("custom_commission_rate", rate).Error
}
