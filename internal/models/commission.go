package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CommissionRate 佣金费率（分类默认或商家覆盖）
type CommissionRate struct {
	ID                    uint                `gorm:"primarykey" json:"id"`                                              // 主键
	CategoryID            uint                `gorm:"index;not null" json:"category_id"`                                 // 分类ID
	VendorID              *uint               `gorm:"index" json:"vendor_id"`                                            // 商家ID（为空表示分类默认）
	CommissionRate        decimal.Decimal     `gorm:"type:decimal(5,2);not null" json:"commission_rate"`                 // 佣金率（0-100）
	PartialCommissionRate decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"partial_commission_rate"`                  // 部分支付佣金率
	IsActive              bool                `gorm:"not null;default:true;index" json:"is_active"`                      // 是否生效
	ActiveKey             *string             `gorm:"type:varchar(64);uniqueIndex" json:"-"`                             // 生效唯一键（失效时为空）
	UpdatedBy             *uint               `json:"updated_by"`                                                        // 最后修改管理员
	CreatedAt             time.Time           `gorm:"index" json:"created_at"`                                           // 创建时间
	UpdatedAt             time.Time           `json:"updated_at"`                                                        // 更新时间

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类
	Vendor   *Vendor   `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`     // 商家
}

// TableName 指定表名
func (CommissionRate) TableName() string {
	return "commission_rates"
}

// CommissionRateActiveKey 生成 (分类, 商家) 唯一键，商家为空时表示分类默认
func CommissionRateActiveKey(categoryID uint, vendorID *uint) string {
	var vendor uint
	if vendorID != nil {
		vendor = *vendorID
	}
	return fmt.Sprintf("c:%d:v:%d", categoryID, vendor)
}

// SyncActiveKey 根据 IsActive 维护唯一键
func (r *CommissionRate) SyncActiveKey() {
	if r == nil {
		return
	}
	if !r.IsActive {
		r.ActiveKey = nil
		return
	}
	key := CommissionRateActiveKey(r.CategoryID, r.VendorID)
	r.ActiveKey = &key
}

// CommissionSettings 佣金全局配置（单行）
type CommissionSettings struct {
	ID                           uint            `gorm:"primarykey" json:"id"`                                                    // 主键
	PartialPaymentCommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"partial_payment_commission_rate"`       // 部分支付兜底佣金率
	VatRate                      decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"vat_rate"`                              // 增值税率
	SettlementBankName           string          `gorm:"type:varchar(191)" json:"settlement_bank_name"`                           // 平台付款银行
	SettlementBankAccount        string          `gorm:"type:varchar(64)" json:"settlement_bank_account"`                         // 平台付款账号（转账借方）
	TransferProcessingDay        string          `gorm:"type:varchar(16);not null" json:"transfer_processing_day"`                // 每周转账处理日（monday..sunday）
	FinanceEmail                 string          `gorm:"type:varchar(191)" json:"finance_email"`                                  // 财务通知邮箱
	UpdatedBy                    *uint           `json:"updated_by"`                                                              // 最后修改管理员
	CreatedAt                    time.Time       `json:"created_at"`                                                              // 创建时间
	UpdatedAt                    time.Time       `json:"updated_at"`                                                              // 更新时间
}

// TableName 指定表名
func (CommissionSettings) TableName() string {
	return "commission_settings"
}
