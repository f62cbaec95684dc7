package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Offer 商家优惠（Blane）表
type Offer struct {
	ID                    uint            `gorm:"primarykey" json:"id"`                                        // 主键
	VendorID              uint            `gorm:"index;not null" json:"vendor_id"`                             // 商家ID
	CategoryID            uint            `gorm:"index;not null" json:"category_id"`                           // 分类ID
	Title                 string          `gorm:"type:varchar(191);not null" json:"title"`                     // 标题
	Price                 Money           `gorm:"type:decimal(20,2);not null;default:0" json:"price"`          // 单价（含税）
	DailyCapacity         *int            `json:"daily_capacity"`                                              // 每日容量（为空不限制）
	MaxQuantityPerBooking *int            `json:"max_quantity_per_booking"`                                    // 单次预订最大数量
	AllowsPartialPayment  bool            `gorm:"not null;default:false" json:"allows_partial_payment"`        // 是否允许部分支付
	PartialPaymentPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"partial_payment_percent"` // 部分支付比例
	IsActive              bool            `gorm:"not null;default:true;index" json:"is_active"`                // 是否上架
	CreatedAt             time.Time       `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt             time.Time       `json:"updated_at"`                                                  // 更新时间
	DeletedAt             gorm.DeletedAt  `gorm:"index" json:"-"`                                              // 软删除时间

	Vendor   *Vendor   `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`     // 商家
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类
}

// TableName 指定表名
func (Offer) TableName() string {
	return "offers"
}
