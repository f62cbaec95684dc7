package constants

// 结算转账状态常量
const (
	SettlementStatusPending   = "pending"
	SettlementStatusProcessed = "processed"
	SettlementStatusComplete  = "complete"
)

// 结算日志动作常量
const (
	SettlementLogActionCreated       = "created"
	SettlementLogActionStatusChanged = "status_changed"
	SettlementLogActionReverted      = "reverted"
	SettlementLogActionDateUpdated   = "date_updated"
	SettlementLogActionFieldsUpdated = "fields_updated"
)

// 支付类型常量
const (
	PaymentTypeFull    = "full"
	PaymentTypePartial = "partial"
)

// 佣金费率来源常量
const (
	RateSourceVendorOverride  = "vendor_override"
	RateSourceCategoryDefault = "category_default"
	RateSourceGlobalFallback  = "global_fallback"
)

// 预订类型常量
const (
	BookingKindOrder       = "order"
	BookingKindReservation = "reservation"
)

// 预订状态常量
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusPaid      = "paid"
	BookingStatusCancelled = "cancelled"
)

// 预订编号前缀
const (
	OrderReferencePrefix       = "ORD"
	ReservationReferencePrefix = "RES"
)

// 商家状态常量
const (
	VendorStatusActive   = "active"
	VendorStatusInactive = "inactive"
)

// AdmissionUnlimitedRemaining 未配置每日容量时返回的剩余量哨兵值
const AdmissionUnlimitedRemaining = 1<<31 - 1

// CMI 回调常量
const (
	CMIProcResponseApproved = "00"
	CMIResponseApproved     = "Approved"
	CMICallbackSuccess      = "ACTION=POSTAUTH"
	CMICallbackFail         = "FAILURE"
)

// 报表导出格式
const (
	ReportFormatXLSX = "xlsx"
	ReportFormatCSV  = "csv"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 异步任务类型常量
const (
	TaskSettlementProcessedEmail = "settlement:processed_email"
	TaskWeeklyBankingReportEmail = "settlement:weekly_report_email"
)
