package repository

// CommissionRateListFilter 查询佣金费率列表的过滤条件
type CommissionRateListFilter struct {
	Page         int
	PageSize     int
	CategoryID   uint
	VendorID     uint
	OnlyDefaults bool
	IsActive     *bool
}

// SettlementListFilter 查询结算记录列表的过滤条件
type SettlementListFilter struct {
	Page           int
	PageSize       int
	VendorID       uint
	TransferStatus string
	PaymentType    string
	WeekFrom       string
	WeekTo         string
	Search         string
}
