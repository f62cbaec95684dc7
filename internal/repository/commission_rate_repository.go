package repository

import (
	"errors"

	"github.com/blane-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionRateRepository 佣金费率数据访问接口
type CommissionRateRepository interface {
	GetByID(id uint) (*models.CommissionRate, error)
	GetByIDForUpdate(id uint) (*models.CommissionRate, error)
	FindActive(categoryID uint, vendorID *uint) (*models.CommissionRate, error)
	FindActiveForUpdate(categoryID uint, vendorID *uint) (*models.CommissionRate, error)
	ListActiveByVendor(vendorID uint) ([]models.CommissionRate, error)
	ListActiveDefaults() ([]models.CommissionRate, error)
	List(filter CommissionRateListFilter) ([]models.CommissionRate, int64, error)
	Create(rate *models.CommissionRate) error
	Update(rate *models.CommissionRate) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) CommissionRateRepository
}

// GormCommissionRateRepository GORM 实现
type GormCommissionRateRepository struct {
	db *gorm.DB
}

// NewCommissionRateRepository 创建佣金费率仓库
func NewCommissionRateRepository(db *gorm.DB) *GormCommissionRateRepository {
	return &GormCommissionRateRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRateRepository) WithTx(tx *gorm.DB) CommissionRateRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRateRepository{db: tx}
}

// Transaction 执行事务
func (r *GormCommissionRateRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 根据 ID 获取费率
func (r *GormCommissionRateRepository) GetByID(id uint) (*models.CommissionRate, error) {
	return firstOrNil[models.CommissionRate](r.db.Where("id = ?", id))
}

// GetByIDForUpdate 加锁获取费率
func (r *GormCommissionRateRepository) GetByIDForUpdate(id uint) (*models.CommissionRate, error) {
	return firstOrNil[models.CommissionRate](r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func scopePair(query *gorm.DB, categoryID uint, vendorID *uint) *gorm.DB {
	query = query.Where("category_id = ? AND is_active = ?", categoryID, true)
	if vendorID == nil {
		return query.Where("vendor_id IS NULL")
	}
	return query.Where("vendor_id = ?", *vendorID)
}

// FindActive 查询 (分类, 商家) 当前生效费率，vendorID 为空时查询分类默认
func (r *GormCommissionRateRepository) FindActive(categoryID uint, vendorID *uint) (*models.CommissionRate, error) {
	return firstOrNil[models.CommissionRate](scopePair(r.db, categoryID, vendorID).Order("id desc"))
}

// FindActiveForUpdate 加锁查询当前生效费率
func (r *GormCommissionRateRepository) FindActiveForUpdate(categoryID uint, vendorID *uint) (*models.CommissionRate, error) {
	query := r.db.Clauses(clause.Locking{Strength: "UPDATE"})
	return firstOrNil[models.CommissionRate](scopePair(query, categoryID, vendorID).Order("id desc"))
}

// ListActiveByVendor 获取商家全部生效覆盖费率
func (r *GormCommissionRateRepository) ListActiveByVendor(vendorID uint) ([]models.CommissionRate, error) {
	rows := make([]models.CommissionRate, 0)
	if err := r.db.Where("vendor_id = ? AND is_active = ?", vendorID, true).
		Order("category_id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListActiveDefaults 获取全部生效的分类默认费率
func (r *GormCommissionRateRepository) ListActiveDefaults() ([]models.CommissionRate, error) {
	rows := make([]models.CommissionRate, 0)
	if err := r.db.Where("vendor_id IS NULL AND is_active = ?", true).
		Order("category_id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List 分页查询费率
func (r *GormCommissionRateRepository) List(filter CommissionRateListFilter) ([]models.CommissionRate, int64, error) {
	query := r.db.Model(&models.CommissionRate{})
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.OnlyDefaults {
		query = query.Where("vendor_id IS NULL")
	} else if filter.VendorID != 0 {
		query = query.Where("vendor_id = ?", filter.VendorID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]models.CommissionRate, 0)
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Category").Preload("Vendor").Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Create 创建费率
func (r *GormCommissionRateRepository) Create(rate *models.CommissionRate) error {
	if rate == nil {
		return errors.New("commission rate is nil")
	}
	rate.SyncActiveKey()
	return r.db.Create(rate).Error
}

// Update 更新费率
func (r *GormCommissionRateRepository) Update(rate *models.CommissionRate) error {
	if rate == nil {
		return errors.New("commission rate is nil")
	}
	rate.SyncActiveKey()
	return r.db.Model(&models.CommissionRate{}).Where("id = ?", rate.ID).Updates(map[string]interface{}{
		"commission_rate":         rate.CommissionRate,
		"partial_commission_rate": rate.PartialCommissionRate,
		"is_active":               rate.IsActive,
		"active_key":              rate.ActiveKey,
		"updated_by":              rate.UpdatedBy,
	}).Error
}
