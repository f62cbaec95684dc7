package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Vendor 商家表
type Vendor struct {
	ID                   uint                `gorm:"primarykey" json:"id"`                                     // 主键
	CompanyName          string              `gorm:"type:varchar(191);not null;index" json:"company_name"`     // 公司名称
	Email                string              `gorm:"type:varchar(191);index" json:"email"`                     // 联系邮箱
	Phone                string              `gorm:"type:varchar(50)" json:"phone"`                            // 联系电话
	Status               string              `gorm:"type:varchar(20);not null;index" json:"status"`            // 状态（active/inactive）
	CustomCommissionRate decimal.NullDecimal `gorm:"type:decimal(5,2)" json:"custom_commission_rate"`          // 商家自定义佣金率（为空表示未覆盖）
	BankName             string              `gorm:"type:varchar(191)" json:"bank_name"`                       // 开户银行
	BankAccount          string              `gorm:"type:varchar(64)" json:"bank_account"`                     // 银行账号（RIB，转账收款方）
	CreatedAt            time.Time           `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt            time.Time           `json:"updated_at"`                                               // 更新时间
	DeletedAt            gorm.DeletedAt      `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (Vendor) TableName() string {
	return "vendors"
}
