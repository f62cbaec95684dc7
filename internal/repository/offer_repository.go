package repository

import (
	"errors"

	"github.com/blane-next/internal/models"

	"gorm.io/gorm"
)

// OfferRepository 优惠数据访问接口
type OfferRepository interface {
	GetByID(id uint) (*models.Offer, error)
	Create(offer *models.Offer) error
	WithTx(tx *gorm.DB) OfferRepository
}

// GormOfferRepository GORM 实现
type GormOfferRepository struct {
	db *gorm.DB
}

// NewOfferRepository 创建优惠仓库
func NewOfferRepository(db *gorm.DB) *GormOfferRepository {
	return &GormOfferRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOfferRepository) WithTx(tx *gorm.DB) OfferRepository {
	if tx == nil {
		return r
	}
	return &GormOfferRepository{db: tx}
}

// GetByID 根据 ID 获取优惠
func (r *GormOfferRepository) GetByID(id uint) (*models.Offer, error) {
	if id == 0 {
		return nil, nil
	}
	var offer models.Offer
	if err := r.db.First(&offer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

// Create 创建优惠
func (r *GormOfferRepository) Create(offer *models.Offer) error {
	return r.db.Create(offer).Error
}
