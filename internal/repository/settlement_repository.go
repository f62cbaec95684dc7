package repository

import (
	"strings"

	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettlementRepository 结算记录与审计日志数据访问接口
type SettlementRepository interface {
	Create(record *models.SettlementRecord) error
	CreateLog(log *models.SettlementLog) error
	GetByID(id uint) (*models.SettlementRecord, error)
	GetByIDForUpdate(id uint) (*models.SettlementRecord, error)
	ListByIDsForUpdate(ids []uint) ([]models.SettlementRecord, error)
	ListByIDs(ids []uint) ([]models.SettlementRecord, error)
	GetByOrderID(orderID uint) (*models.SettlementRecord, error)
	GetByReservationID(reservationID uint) (*models.SettlementRecord, error)
	UpdateFields(id uint, updates map[string]interface{}) error
	List(filter SettlementListFilter) ([]models.SettlementRecord, int64, error)
	ListLogs(settlementID uint) ([]models.SettlementLog, error)
	ListByWeekRange(weekFrom, weekTo string) ([]models.SettlementRecord, error)
	AggregateByVendor(weekFrom, weekTo string) ([]SettlementVendorAggregateRow, error)
	AggregateByStatus(weekFrom, weekTo string) ([]SettlementStatusAggregateRow, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) SettlementRepository
}

// SettlementVendorAggregateRow 按商家聚合的结算统计
type SettlementVendorAggregateRow struct {
	VendorID                uint
	RecordCount             int64
	TotalAmountTTC          decimal.Decimal
	CommissionAmountInclVat decimal.Decimal
	NetAmountTTC            decimal.Decimal
	PendingCount            int64
	ProcessedCount          int64
	CompleteCount           int64
}

// SettlementStatusAggregateRow 按转账状态聚合的结算统计
type SettlementStatusAggregateRow struct {
	TransferStatus          string
	RecordCount             int64
	TotalAmountTTC          decimal.Decimal
	CommissionAmountInclVat decimal.Decimal
	NetAmountTTC            decimal.Decimal
}

// GormSettlementRepository GORM 实现
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository 创建结算仓库
func NewSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSettlementRepository) WithTx(tx *gorm.DB) SettlementRepository {
	if tx == nil {
		return r
	}
	return &GormSettlementRepository{db: tx}
}

// Transaction 执行事务
func (r *GormSettlementRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建结算记录
func (r *GormSettlementRepository) Create(record *models.SettlementRecord) error {
	return r.db.Omit(clause.Associations).Create(record).Error
}

// CreateLog 追加审计日志
func (r *GormSettlementRepository) CreateLog(log *models.SettlementLog) error {
	return r.db.Create(log).Error
}

// GetByID 获取结算记录（含商家）
func (r *GormSettlementRepository) GetByID(id uint) (*models.SettlementRecord, error) {
	return firstOrNil[models.SettlementRecord](r.db.Preload("Vendor").Where("id = ?", id))
}

// GetByIDForUpdate 加锁获取结算记录
func (r *GormSettlementRepository) GetByIDForUpdate(id uint) (*models.SettlementRecord, error) {
	return firstOrNil[models.SettlementRecord](r.db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

// ListByIDsForUpdate 批量加锁获取结算记录
func (r *GormSettlementRepository) ListByIDsForUpdate(ids []uint) ([]models.SettlementRecord, error) {
	rows := make([]models.SettlementRecord, 0, len(ids))
	if len(ids) == 0 {
		return rows, nil
	}
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByIDs 批量获取结算记录
func (r *GormSettlementRepository) ListByIDs(ids []uint) ([]models.SettlementRecord, error) {
	rows := make([]models.SettlementRecord, 0, len(ids))
	if len(ids) == 0 {
		return rows, nil
	}
	if err := r.db.Where("id IN ?", ids).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByOrderID 根据订单获取结算记录
func (r *GormSettlementRepository) GetByOrderID(orderID uint) (*models.SettlementRecord, error) {
	return firstOrNil[models.SettlementRecord](r.db.Where("order_id = ?", orderID))
}

// GetByReservationID 根据预约获取结算记录
func (r *GormSettlementRepository) GetByReservationID(reservationID uint) (*models.SettlementRecord, error) {
	return firstOrNil[models.SettlementRecord](r.db.Where("reservation_id = ?", reservationID))
}

// UpdateFields 更新结算字段
func (r *GormSettlementRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.SettlementRecord{}).Where("id = ?", id).Updates(updates).Error
}

// List 分页查询结算记录
func (r *GormSettlementRepository) List(filter SettlementListFilter) ([]models.SettlementRecord, int64, error) {
	query := r.db.Model(&models.SettlementRecord{})
	if filter.VendorID != 0 {
		query = query.Where("vendor_id = ?", filter.VendorID)
	}
	if filter.TransferStatus != "" {
		query = query.Where("transfer_status = ?", filter.TransferStatus)
	}
	if filter.PaymentType != "" {
		query = query.Where("payment_type = ?", filter.PaymentType)
	}
	if filter.WeekFrom != "" {
		query = query.Where("week_start >= ?", filter.WeekFrom)
	}
	if filter.WeekTo != "" {
		query = query.Where("week_start <= ?", filter.WeekTo)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("booking_reference "+likeOperator(r.db)+" ?", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	rows := make([]models.SettlementRecord, 0)
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Vendor").Order("id desc").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// ListLogs 获取结算审计日志（按时间正序）
func (r *GormSettlementRepository) ListLogs(settlementID uint) ([]models.SettlementLog, error) {
	logs := make([]models.SettlementLog, 0)
	if err := r.db.Where("settlement_id = ?", settlementID).
		Order("id asc").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func weekRangeScope(query *gorm.DB, weekFrom, weekTo string) *gorm.DB {
	return query.Where("week_start >= ? AND week_start <= ?", weekFrom, weekTo)
}

// ListByWeekRange 获取周区间内的全部结算记录（导出使用）
func (r *GormSettlementRepository) ListByWeekRange(weekFrom, weekTo string) ([]models.SettlementRecord, error) {
	rows := make([]models.SettlementRecord, 0)
	if err := weekRangeScope(r.db.Model(&models.SettlementRecord{}), weekFrom, weekTo).
		Preload("Vendor").
		Order("vendor_id asc, id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// AggregateByVendor 按商家聚合周区间内的结算金额与状态数量
func (r *GormSettlementRepository) AggregateByVendor(weekFrom, weekTo string) ([]SettlementVendorAggregateRow, error) {
	rows := make([]SettlementVendorAggregateRow, 0)
	err := weekRangeScope(r.db.Model(&models.SettlementRecord{}), weekFrom, weekTo).
		Select(
			"vendor_id AS vendor_id, "+
				"COUNT(*) AS record_count, "+
				"COALESCE(SUM(total_amount_ttc), 0) AS total_amount_ttc, "+
				"COALESCE(SUM(commission_amount_incl_vat), 0) AS commission_amount_incl_vat, "+
				"COALESCE(SUM(net_amount_ttc), 0) AS net_amount_ttc, "+
				"SUM(CASE WHEN transfer_status = ? THEN 1 ELSE 0 END) AS pending_count, "+
				"SUM(CASE WHEN transfer_status = ? THEN 1 ELSE 0 END) AS processed_count, "+
				"SUM(CASE WHEN transfer_status = ? THEN 1 ELSE 0 END) AS complete_count",
			constants.SettlementStatusPending, constants.SettlementStatusProcessed, constants.SettlementStatusComplete,
		).
		Group("vendor_id").
		Order("vendor_id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AggregateByStatus 按转账状态聚合周区间内的结算金额
func (r *GormSettlementRepository) AggregateByStatus(weekFrom, weekTo string) ([]SettlementStatusAggregateRow, error) {
	rows := make([]SettlementStatusAggregateRow, 0)
	err := weekRangeScope(r.db.Model(&models.SettlementRecord{}), weekFrom, weekTo).
		Select(
			"transfer_status AS transfer_status, " +
				"COUNT(*) AS record_count, " +
				"COALESCE(SUM(total_amount_ttc), 0) AS total_amount_ttc, " +
				"COALESCE(SUM(commission_amount_incl_vat), 0) AS commission_amount_incl_vat, " +
				"COALESCE(SUM(net_amount_ttc), 0) AS net_amount_ttc",
		).
		Group("transfer_status").
		Order("transfer_status asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
