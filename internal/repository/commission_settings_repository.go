package repository

import (
	"github.com/blane-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommissionSettingsRepository 佣金全局配置数据访问接口
type CommissionSettingsRepository interface {
	Get() (*models.CommissionSettings, error)
	GetOrCreate(defaults models.CommissionSettings) (*models.CommissionSettings, error)
	Save(settings *models.CommissionSettings) error
}

// GormCommissionSettingsRepository GORM 实现
type GormCommissionSettingsRepository struct {
	db *gorm.DB
}

// NewCommissionSettingsRepository 创建佣金配置仓库
func NewCommissionSettingsRepository(db *gorm.DB) *GormCommissionSettingsRepository {
	return &GormCommissionSettingsRepository{db: db}
}

// Get 获取配置（不存在返回 nil）
func (r *GormCommissionSettingsRepository) Get() (*models.CommissionSettings, error) {
	return firstOrNil[models.CommissionSettings](r.db.Order("id asc"))
}

// GetOrCreate 获取配置，不存在时按默认值创建（固定主键 1 保证单行）
func (r *GormCommissionSettingsRepository) GetOrCreate(defaults models.CommissionSettings) (*models.CommissionSettings, error) {
	existing, err := r.Get()
	if err != nil || existing != nil {
		return existing, err
	}
	defaults.ID = 1
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error; err != nil {
		return nil, err
	}
	return r.Get()
}

// Save 保存配置
func (r *GormCommissionSettingsRepository) Save(settings *models.CommissionSettings) error {
	return r.db.Save(settings).Error
}
