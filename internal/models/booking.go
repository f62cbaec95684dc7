package models

import (
	"time"

	"gorm.io/gorm"
)

// BookingDayLayout 预订日期列格式
const BookingDayLayout = "2006-01-02"

// BookingFields 订单与预约共用字段
type BookingFields struct {
	Reference      string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"reference"`              // 预订编号
	OfferID        uint       `gorm:"index;not null" json:"offer_id"`                                      // 优惠ID
	VendorID       uint       `gorm:"index;not null" json:"vendor_id"`                                     // 商家ID
	CategoryID     uint       `gorm:"index;not null" json:"category_id"`                                   // 分类ID
	BookingDay     string     `gorm:"type:varchar(10);index;not null" json:"booking_day"`                  // 预订日（YYYY-MM-DD）
	Quantity       int        `gorm:"not null" json:"quantity"`                                            // 数量
	UnitPrice      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`             // 单价（含税）
	TotalAmountTTC Money      `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount_ttc"`       // 总额（含税）
	PaymentType    string     `gorm:"type:varchar(20);not null" json:"payment_type"`                       // 支付类型（full/partial）
	AmountDue      Money      `gorm:"type:decimal(20,2);not null;default:0" json:"amount_due"`             // 支付时应收金额（全额或定金）
	PaidAmount     Money      `gorm:"type:decimal(20,2);not null;default:0" json:"paid_amount"`            // 已付金额
	Status         string     `gorm:"type:varchar(20);index;not null" json:"status"`                       // 状态
	CustomerName   string     `gorm:"type:varchar(191)" json:"customer_name"`                              // 客户姓名
	CustomerEmail  string     `gorm:"type:varchar(191);index" json:"customer_email"`                       // 客户邮箱
	CustomerPhone  string     `gorm:"type:varchar(50)" json:"customer_phone"`                              // 客户电话
	PaidAt         *time.Time `gorm:"index" json:"paid_at"`                                                // 支付时间
	CancelledAt    *time.Time `json:"cancelled_at"`                                                        // 取消时间
}

// Order 订单表
type Order struct {
	ID            uint           `gorm:"primarykey" json:"id"` // 主键
	BookingFields `gorm:"embedded"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"` // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`              // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`          // 软删除时间
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

// Reservation 预约表
type Reservation struct {
	ID              uint           `gorm:"primarykey" json:"id"` // 主键
	BookingFields   `gorm:"embedded"`
	TimeSlot        string         `gorm:"type:varchar(20)" json:"time_slot"`                 // 预约时段（如 14:00）
	NumberOfPersons int            `gorm:"not null;default:1" json:"number_of_persons"`       // 人数
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                           // 创建时间
	UpdatedAt       time.Time      `json:"updated_at"`                                        // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                    // 软删除时间
}

// TableName 指定表名
func (Reservation) TableName() string {
	return "reservations"
}

// OfferDailyUsage 优惠每日已占用数量（预订事务内行锁）
type OfferDailyUsage struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                               // 主键
	OfferID   uint      `gorm:"not null;uniqueIndex:uniq_offer_daily_usage" json:"offer_id"`        // 优惠ID
	Day       string    `gorm:"type:varchar(10);not null;uniqueIndex:uniq_offer_daily_usage" json:"day"` // 日期（YYYY-MM-DD）
	Reserved  int       `gorm:"not null;default:0" json:"reserved"`                                 // 已占用数量
	UpdatedAt time.Time `json:"updated_at"`                                                         // 更新时间
}

// TableName 指定表名
func (OfferDailyUsage) TableName() string {
	return "offer_daily_usages"
}
