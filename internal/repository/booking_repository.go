package repository

import (
	"errors"

	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingRepository 订单与预约数据访问接口
type BookingRepository interface {
	CreateOrder(order *models.Order) error
	CreateReservation(reservation *models.Reservation) error
	GetOrderByID(id uint) (*models.Order, error)
	GetReservationByID(id uint) (*models.Reservation, error)
	GetOrderByReference(reference string) (*models.Order, error)
	GetReservationByReference(reference string) (*models.Reservation, error)
	GetOrderForUpdate(id uint) (*models.Order, error)
	GetReservationForUpdate(id uint) (*models.Reservation, error)
	UpdateOrderFields(id uint, updates map[string]interface{}) error
	UpdateReservationFields(id uint, updates map[string]interface{}) error
	SumActiveQuantity(offerID uint, day string) (int64, error)
	LockDailyUsage(offerID uint, day string) (*models.OfferDailyUsage, error)
	AdjustDailyUsage(offerID uint, day string, delta int) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) BookingRepository
}

// GormBookingRepository GORM 实现
type GormBookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository 创建预订仓库
func NewBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBookingRepository) WithTx(tx *gorm.DB) BookingRepository {
	if tx == nil {
		return r
	}
	return &GormBookingRepository{db: tx}
}

// Transaction 执行事务
func (r *GormBookingRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// CreateOrder 创建订单
func (r *GormBookingRepository) CreateOrder(order *models.Order) error {
	return r.db.Create(order).Error
}

// CreateReservation 创建预约
func (r *GormBookingRepository) CreateReservation(reservation *models.Reservation) error {
	return r.db.Create(reservation).Error
}

// GetOrderByID 根据 ID 获取订单
func (r *GormBookingRepository) GetOrderByID(id uint) (*models.Order, error) {
	return firstOrNil[models.Order](r.db.Where("id = ?", id))
}

// GetReservationByID 根据 ID 获取预约
func (r *GormBookingRepository) GetReservationByID(id uint) (*models.Reservation, error) {
	return firstOrNil[models.Reservation](r.db.Where("id = ?", id))
}

// GetOrderByReference 根据编号获取订单
func (r *GormBookingRepository) GetOrderByReference(reference string) (*models.Order, error) {
	return firstOrNil[models.Order](r.db.Where("reference = ?", reference))
}

// GetReservationByReference 根据编号获取预约
func (r *GormBookingRepository) GetReservationByReference(reference string) (*models.Reservation, error) {
	return firstOrNil[models.Reservation](r.db.Where("reference = ?", reference))
}

// GetOrderForUpdate 加锁获取订单
func (r *GormBookingRepository) GetOrderForUpdate(id uint) (*models.Order, error) {
	return firstOrNil[models.Order](r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// GetReservationForUpdate 加锁获取预约
func (r *GormBookingRepository) GetReservationForUpdate(id uint) (*models.Reservation, error) {
	return firstOrNil[models.Reservation](r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// UpdateOrderFields 更新订单字段
func (r *GormBookingRepository) UpdateOrderFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateReservationFields 更新预约字段
func (r *GormBookingRepository) UpdateReservationFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Reservation{}).Where("id = ?", id).Updates(updates).Error
}

// SumActiveQuantity 统计某优惠某日未取消的订单与预约数量之和
func (r *GormBookingRepository) SumActiveQuantity(offerID uint, day string) (int64, error) {
	var total int64
	for _, model := range []interface{}{&models.Order{}, &models.Reservation{}} {
		var sum int64
		if err := r.db.Model(model).
			Select("COALESCE(SUM(quantity), 0)").
			Where("offer_id = ? AND booking_day = ? AND status <> ?", offerID, day, constants.BookingStatusCancelled).
			Scan(&sum).Error; err != nil {
			return 0, err
		}
		total += sum
	}
	return total, nil
}

// LockDailyUsage 获取（不存在则创建）每日占用行并加行锁
func (r *GormBookingRepository) LockDailyUsage(offerID uint, day string) (*models.OfferDailyUsage, error) {
	seed := models.OfferDailyUsage{OfferID: offerID, Day: day}
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, err
	}
	var usage models.OfferDailyUsage
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("offer_id = ? AND day = ?", offerID, day).
		First(&usage).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

// AdjustDailyUsage 调整每日占用数量（不会低于 0）
func (r *GormBookingRepository) AdjustDailyUsage(offerID uint, day string, delta int) error {
	if delta == 0 {
		return nil
	}
	expr := gorm.Expr("reserved + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN reserved + ? < 0 THEN 0 ELSE reserved + ? END", delta, delta)
	}
	return r.db.Model(&models.OfferDailyUsage{}).
		Where("offer_id = ? AND day = ?", offerID, day).
		Update("reserved", expr).Error
}

// firstOrNil 查询首条记录，不存在时返回 nil
func firstOrNil[T any](query *gorm.DB) (*T, error) {
	var row T
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
