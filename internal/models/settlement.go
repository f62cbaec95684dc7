package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRecord 商家结算记录（每笔订单或预约一行）
type SettlementRecord struct {
	ID                      uint                `gorm:"primarykey" json:"id"`                                                       // 主键
	VendorID                uint                `gorm:"index;not null" json:"vendor_id"`                                            // 商家ID
	CategoryID              uint                `gorm:"index;not null" json:"category_id"`                                          // 分类ID
	OrderID                 *uint               `gorm:"uniqueIndex" json:"order_id"`                                                // 订单ID（与预约ID互斥）
	ReservationID           *uint               `gorm:"uniqueIndex" json:"reservation_id"`                                          // 预约ID（与订单ID互斥）
	BookingReference        string              `gorm:"type:varchar(64);index;not null" json:"booking_reference"`                   // 预订编号
	PaymentType             string              `gorm:"type:varchar(20);index;not null" json:"payment_type"`                        // 支付类型
	TotalAmountTTC          Money               `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount_ttc"`              // 总额（含税）
	CommissionRateApplied   decimal.Decimal     `gorm:"type:decimal(5,2);not null" json:"commission_rate_applied"`                  // 结算时佣金率快照
	RateSource              string              `gorm:"type:varchar(32);not null" json:"rate_source"`                               // 佣金率来源
	VendorOverrideRate      decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"vendor_override_rate"`                              // 结算时商家自定义佣金率
	VatRateApplied          decimal.Decimal     `gorm:"type:decimal(5,2);not null;default:0" json:"vat_rate_applied"`               // 结算时增值税率快照
	CommissionAmountInclVat Money               `gorm:"type:decimal(20,2);not null;default:0" json:"commission_amount_incl_vat"`    // 佣金（含税）
	CommissionAmountExclVat Money               `gorm:"type:decimal(20,2);not null;default:0" json:"commission_amount_excl_vat"`    // 佣金（不含税）
	CommissionVatAmount     Money               `gorm:"type:decimal(20,2);not null;default:0" json:"commission_vat_amount"`         // 佣金增值税
	NetAmountTTC            Money               `gorm:"type:decimal(20,2);not null;default:0" json:"net_amount_ttc"`                // 应付商家净额
	TransferStatus          string              `gorm:"type:varchar(20);index;not null" json:"transfer_status"`                     // 转账状态
	BookingDate             time.Time           `gorm:"index;not null" json:"booking_date"`                                         // 预订日期
	PaymentDate             *time.Time          `gorm:"index" json:"payment_date"`                                                  // 支付日期
	TransferDate            *time.Time          `gorm:"index" json:"transfer_date"`                                                 // 转账日期
	WeekStart               string              `gorm:"type:varchar(10);index;not null" json:"week_start"`                          // 所属周（周一，YYYY-MM-DD）
	DebitAccount            string              `gorm:"type:varchar(64)" json:"debit_account"`                                      // 借方账号（平台）
	CreditAccount           string              `gorm:"type:varchar(64)" json:"credit_account"`                                     // 贷方账号（商家）
	Reason                  string              `gorm:"type:text" json:"reason"`                                                    // 备注原因
	UpdatedBy               *uint               `json:"updated_by"`                                                                 // 最后操作管理员
	CreatedAt               time.Time           `gorm:"index" json:"created_at"`                                                    // 创建时间
	UpdatedAt               time.Time           `json:"updated_at"`                                                                 // 更新时间

	Vendor *Vendor         `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`          // 商家
	Logs   []SettlementLog `gorm:"foreignKey:SettlementID" json:"logs,omitempty"`        // 审计日志
}

// TableName 指定表名
func (SettlementRecord) TableName() string {
	return "settlement_records"
}

// SettlementLog 结算审计日志（只追加）
type SettlementLog struct {
	ID             uint      `gorm:"primarykey" json:"id"`                            // 主键
	SettlementID   uint      `gorm:"index;not null" json:"settlement_id"`             // 结算记录ID
	AdminID        *uint     `gorm:"index" json:"admin_id"`                           // 操作管理员（系统操作为空）
	Action         string    `gorm:"type:varchar(32);index;not null" json:"action"`   // 动作
	PreviousStatus JSON      `gorm:"type:json" json:"previous_status"`                // 变更前字段快照
	NewStatus      JSON      `gorm:"type:json" json:"new_status"`                     // 变更后字段快照
	Note           string    `gorm:"type:text" json:"note"`                           // 管理员备注
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                         // 创建时间
}

// TableName 指定表名
func (SettlementLog) TableName() string {
	return "settlement_logs"
}
