package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/logger"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/queue"
	"github.com/blane-next/internal/repository"

	"gorm.io/gorm"
)

// SettlementService 结算流转服务
// 每次状态或字段变更与对应审计日志在同一事务内写入。
type SettlementService struct {
	repo        repository.SettlementRepository
	queueClient *queue.Client
	now         func() time.Time
}

// NewSettlementService 创建结算服务
func NewSettlementService(repo repository.SettlementRepository, queueClient *queue.Client) *SettlementService {
	return &SettlementService{repo: repo, queueClient: queueClient, now: time.Now}
}

// BulkTransitionResult 批量流转结果
type BulkTransitionResult struct {
	AffectedCount int    `json:"affected_count"`
	AffectedIDs   []uint `json:"affected_ids"`
	SkippedIDs    []uint `json:"skipped_ids"`
}

// SettlementUpdateInput 通用字段更新（空字段不修改）
type SettlementUpdateInput struct {
	TransferStatus    *string
	BookingDate       *time.Time
	PaymentDate       *time.Time
	TransferDate      *time.Time
	ClearTransferDate bool
	DebitAccount      *string
	CreditAccount     *string
	Reason            *string
	Note              string
}

// SettlementDatesInput 日期修正输入
type SettlementDatesInput struct {
	BookingDate  *time.Time
	PaymentDate  *time.Time
	TransferDate *time.Time
	Note         string
}

// SettlementDetail 结算详情（含审计日志）
type SettlementDetail struct {
	*models.SettlementRecord
	Logs []models.SettlementLog `json:"logs"`
}

// List 分页查询结算记录
func (s *SettlementService) List(filter repository.SettlementListFilter) ([]models.SettlementRecord, int64, error) {
	if filter.TransferStatus != "" && !IsValidSettlementStatus(filter.TransferStatus) {
		return nil, 0, fmt.Errorf("%w: transfer_status", ErrValidation)
	}
	return s.repo.List(filter)
}

// Get 获取结算详情
func (s *SettlementService) Get(id uint) (*SettlementDetail, error) {
	record, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrSettlementNotFound
	}
	logs, err := s.repo.ListLogs(id)
	if err != nil {
		return nil, err
	}
	return &SettlementDetail{SettlementRecord: record, Logs: logs}, nil
}

// Logs 获取结算审计日志
func (s *SettlementService) Logs(id uint) ([]models.SettlementLog, error) {
	record, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrSettlementNotFound
	}
	return s.repo.ListLogs(id)
}

// MarkAsProcessed 批量 pending -> processed；非 pending 的记录跳过，不影响其它记录
func (s *SettlementService) MarkAsProcessed(ctx context.Context, ids []uint, adminID uint, transferDate *time.Time, note string) (*BulkTransitionResult, error) {
	result, affected, err := s.bulkTransition(ids, adminID, TransitionProcess, transferDate, note)
	if err != nil {
		return nil, err
	}
	s.notifyProcessed(ctx, affected)
	return result, nil
}

// MarkAsComplete 批量 processed -> complete，语义同 MarkAsProcessed
func (s *SettlementService) MarkAsComplete(ctx context.Context, ids []uint, adminID uint, note string) (*BulkTransitionResult, error) {
	result, _, err := s.bulkTransition(ids, adminID, TransitionComplete, nil, note)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SettlementService) bulkTransition(ids []uint, adminID uint, transition SettlementTransition, transferDate *time.Time, note string) (*BulkTransitionResult, []models.SettlementRecord, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, nil, ErrSettlementIDsEmpty
	}
	result := &BulkTransitionResult{AffectedIDs: make([]uint, 0, len(ids)), SkippedIDs: make([]uint, 0)}
	affected := make([]models.SettlementRecord, 0, len(ids))
	now := s.now()
	note = strings.TrimSpace(note)

	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		records, err := repoTx.ListByIDsForUpdate(ids)
		if err != nil {
			return err
		}
		found := make(map[uint]bool, len(records))
		for i := range records {
			record := &records[i]
			found[record.ID] = true
			next, ok := nextSettlementStatus(record.TransferStatus, transition)
			if !ok {
				result.SkippedIDs = append(result.SkippedIDs, record.ID)
				continue
			}
			before := snapshotSettlement(record, []string{"transfer_status", "transfer_date"})
			record.TransferStatus = next
			if transition == TransitionProcess {
				date := now
				if transferDate != nil {
					date = *transferDate
				}
				record.TransferDate = &date
			} else if record.TransferDate == nil {
				record.TransferDate = &now
			}
			record.UpdatedBy = adminIDPtr(adminID)
			if err := repoTx.UpdateFields(record.ID, map[string]interface{}{
				"transfer_status": record.TransferStatus,
				"transfer_date":   record.TransferDate,
				"updated_by":      record.UpdatedBy,
			}); err != nil {
				return err
			}
			if err := repoTx.CreateLog(&models.SettlementLog{
				SettlementID:   record.ID,
				AdminID:        adminIDPtr(adminID),
				Action:         constants.SettlementLogActionStatusChanged,
				PreviousStatus: before,
				NewStatus:      snapshotSettlement(record, []string{"transfer_status", "transfer_date"}),
				Note:           note,
			}); err != nil {
				return err
			}
			result.AffectedIDs = append(result.AffectedIDs, record.ID)
			affected = append(affected, *record)
		}
		for _, id := range ids {
			if !found[id] {
				result.SkippedIDs = append(result.SkippedIDs, id)
			}
		}
		return nil
	})
	if err != nil {
		logger.Errorw("settlement_bulk_transition_failed", "transition", string(transition), "ids", ids, "error", err)
		return nil, nil, err
	}
	result.AffectedCount = len(result.AffectedIDs)
	logger.Infow("settlement_bulk_transition",
		"transition", string(transition),
		"admin_id", adminID,
		"requested", len(ids),
		"affected", result.AffectedCount,
		"skipped_ids", result.SkippedIDs,
	)
	return result, affected, nil
}

// RevertToPending processed -> pending，必须填写备注
func (s *SettlementService) RevertToPending(id uint, adminID uint, note string) (*models.SettlementRecord, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, ErrRevertNoteRequired
	}
	var reverted *models.SettlementRecord
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		record, err := repoTx.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrSettlementNotFound
		}
		next, ok := nextSettlementStatus(record.TransferStatus, TransitionRevert)
		if !ok {
			return &TransitionError{SettlementID: id, From: record.TransferStatus, Action: string(TransitionRevert)}
		}
		before := snapshotSettlement(record, nil)
		record.TransferStatus = next
		record.TransferDate = nil
		record.UpdatedBy = adminIDPtr(adminID)
		if err := repoTx.UpdateFields(id, map[string]interface{}{
			"transfer_status": record.TransferStatus,
			"transfer_date":   nil,
			"updated_by":      record.UpdatedBy,
		}); err != nil {
			return err
		}
		if err := repoTx.CreateLog(&models.SettlementLog{
			SettlementID:   id,
			AdminID:        adminIDPtr(adminID),
			Action:         constants.SettlementLogActionReverted,
			PreviousStatus: before,
			NewStatus:      snapshotSettlement(record, nil),
			Note:           note,
		}); err != nil {
			return err
		}
		reverted = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("settlement_reverted_to_pending", "settlement_id", id, "admin_id", adminID)
	return reverted, nil
}

// UpdateStatus 通用字段更新；状态变化同样经过状态机校验
func (s *SettlementService) UpdateStatus(id uint, adminID uint, input SettlementUpdateInput) (*models.SettlementRecord, error) {
	if !input.hasFields() {
		return nil, ErrSettlementNoFields
	}
	if input.TransferStatus != nil && !IsValidSettlementStatus(*input.TransferStatus) {
		return nil, fmt.Errorf("%w: transfer_status", ErrValidation)
	}
	note := strings.TrimSpace(input.Note)

	var updated *models.SettlementRecord
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		record, err := repoTx.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrSettlementNotFound
		}

		touched := make([]string, 0, 8)
		action := constants.SettlementLogActionFieldsUpdated
		before := snapshotSettlement(record, nil)

		if input.TransferStatus != nil {
			target := normalizeSettlementStatus(*input.TransferStatus)
			if target != record.TransferStatus {
				transition, ok := transitionForStatusChange(record.TransferStatus, target)
				if !ok {
					return &TransitionError{SettlementID: id, From: record.TransferStatus, Action: "set " + target}
				}
				if transition == TransitionRevert {
					if note == "" {
						return ErrRevertNoteRequired
					}
					action = constants.SettlementLogActionReverted
					record.TransferDate = nil
					touched = append(touched, "transfer_date")
				} else {
					action = constants.SettlementLogActionStatusChanged
					if record.TransferDate == nil && input.TransferDate == nil {
						now := s.now()
						record.TransferDate = &now
						touched = append(touched, "transfer_date")
					}
				}
				record.TransferStatus = target
				touched = append(touched, "transfer_status")
			}
		}
		pending := record.TransferStatus == constants.SettlementStatusPending
		if input.TransferDate != nil && pending {
			return fmt.Errorf("%w: set on pending settlement %d", ErrTransferDateStatusInvalid, id)
		}
		if input.ClearTransferDate && !pending {
			return fmt.Errorf("%w: clear on %s settlement %d", ErrTransferDateStatusInvalid, record.TransferStatus, id)
		}
		touched = append(touched, applyDateFields(record, input.BookingDate, input.PaymentDate, input.TransferDate)...)
		if input.ClearTransferDate && record.TransferDate != nil {
			record.TransferDate = nil
			touched = append(touched, "transfer_date")
		}
		if input.DebitAccount != nil {
			record.DebitAccount = strings.TrimSpace(*input.DebitAccount)
			touched = append(touched, "debit_account")
		}
		if input.CreditAccount != nil {
			record.CreditAccount = strings.TrimSpace(*input.CreditAccount)
			touched = append(touched, "credit_account")
		}
		if input.Reason != nil {
			record.Reason = strings.TrimSpace(*input.Reason)
			touched = append(touched, "reason")
		}

		touched = uniqueStrings(touched)
		if len(touched) == 0 {
			return ErrSettlementNoFields
		}
		record.UpdatedBy = adminIDPtr(adminID)
		updates := settlementUpdates(record, touched)
		updates["updated_by"] = record.UpdatedBy
		if err := repoTx.UpdateFields(id, updates); err != nil {
			return err
		}
		if err := repoTx.CreateLog(&models.SettlementLog{
			SettlementID:   id,
			AdminID:        adminIDPtr(adminID),
			Action:         action,
			PreviousStatus: pickSnapshot(before, touched),
			NewStatus:      snapshotSettlement(record, touched),
			Note:           note,
		}); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateDates 仅修正日期，记录为 date_updated
func (s *SettlementService) UpdateDates(id uint, adminID uint, input SettlementDatesInput) (*models.SettlementRecord, error) {
	if input.BookingDate == nil && input.PaymentDate == nil && input.TransferDate == nil {
		return nil, ErrSettlementNoFields
	}
	var updated *models.SettlementRecord
	err := s.repo.Transaction(func(tx *gorm.DB) error {
		repoTx := s.repo.WithTx(tx)
		record, err := repoTx.GetByIDForUpdate(id)
		if err != nil {
			return err
		}
		if record == nil {
			return ErrSettlementNotFound
		}
		if input.TransferDate != nil && record.TransferStatus == constants.SettlementStatusPending {
			return fmt.Errorf("%w: set on pending settlement %d", ErrTransferDateStatusInvalid, id)
		}
		before := snapshotSettlement(record, nil)
		touched := applyDateFields(record, input.BookingDate, input.PaymentDate, input.TransferDate)
		record.UpdatedBy = adminIDPtr(adminID)
		updates := settlementUpdates(record, touched)
		updates["updated_by"] = record.UpdatedBy
		if err := repoTx.UpdateFields(id, updates); err != nil {
			return err
		}
		if err := repoTx.CreateLog(&models.SettlementLog{
			SettlementID:   id,
			AdminID:        adminIDPtr(adminID),
			Action:         constants.SettlementLogActionDateUpdated,
			PreviousStatus: pickSnapshot(before, touched),
			NewStatus:      snapshotSettlement(record, touched),
			Note:           strings.TrimSpace(input.Note),
		}); err != nil {
			return err
		}
		updated = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// createForBookingInTx 在确认支付事务内写入结算记录与创建日志
func (s *SettlementService) createForBookingInTx(repoTx repository.SettlementRepository, draft SettlementDraft) (*models.SettlementRecord, error) {
	record := BuildSettlementRecord(draft)
	if err := repoTx.Create(record); err != nil {
		return nil, err
	}
	if err := repoTx.CreateLog(&models.SettlementLog{
		SettlementID: record.ID,
		AdminID:      draft.AdminID,
		Action:       constants.SettlementLogActionCreated,
		NewStatus: snapshotSettlement(record, []string{
			"transfer_status", "total_amount_ttc", "commission_rate_applied", "rate_source",
			"commission_amount_incl_vat", "net_amount_ttc", "week_start",
		}),
	}); err != nil {
		return nil, err
	}
	return record, nil
}

// notifyProcessed 按商家投递结算已处理邮件，失败仅记录日志
func (s *SettlementService) notifyProcessed(ctx context.Context, records []models.SettlementRecord) {
	if len(records) == 0 || s.queueClient == nil || !s.queueClient.Enabled() {
		return
	}
	log := logger.FromContext(ctx)
	byVendor := make(map[uint][]uint)
	transferDates := make(map[uint]string)
	for _, record := range records {
		byVendor[record.VendorID] = append(byVendor[record.VendorID], record.ID)
		if record.TransferDate != nil {
			transferDates[record.VendorID] = record.TransferDate.Format(models.BookingDayLayout)
		}
	}
	vendorIDs := make([]uint, 0, len(byVendor))
	for vendorID := range byVendor {
		vendorIDs = append(vendorIDs, vendorID)
	}
	sort.Slice(vendorIDs, func(i, j int) bool { return vendorIDs[i] < vendorIDs[j] })
	for _, vendorID := range vendorIDs {
		payload := queue.SettlementProcessedEmailPayload{
			VendorID:      vendorID,
			SettlementIDs: byVendor[vendorID],
			TransferDate:  transferDates[vendorID],
		}
		if err := s.queueClient.EnqueueSettlementProcessedEmail(payload); err != nil {
			log.Warnw("settlement_processed_email_enqueue_failed", "vendor_id", vendorID, "error", err)
		}
	}
}

func (in SettlementUpdateInput) hasFields() bool {
	return in.TransferStatus != nil || in.BookingDate != nil || in.PaymentDate != nil ||
		in.TransferDate != nil || in.ClearTransferDate || in.DebitAccount != nil ||
		in.CreditAccount != nil || in.Reason != nil
}

// applyDateFields 写入日期字段并在预订/支付日期变化时重算所属周
func applyDateFields(record *models.SettlementRecord, bookingDate, paymentDate, transferDate *time.Time) []string {
	touched := make([]string, 0, 4)
	if bookingDate != nil {
		record.BookingDate = *bookingDate
		touched = append(touched, "booking_date")
	}
	if paymentDate != nil {
		date := *paymentDate
		record.PaymentDate = &date
		touched = append(touched, "payment_date")
	}
	if transferDate != nil {
		date := *transferDate
		record.TransferDate = &date
		touched = append(touched, "transfer_date")
	}
	if bookingDate != nil || paymentDate != nil {
		week := WeekBucket(record.BookingDate, record.PaymentDate)
		if week != record.WeekStart {
			record.WeekStart = week
			touched = append(touched, "week_start")
		}
	}
	return touched
}

func settlementUpdates(record *models.SettlementRecord, fields []string) map[string]interface{} {
	updates := make(map[string]interface{}, len(fields)+1)
	for _, field := range fields {
		switch field {
		case "transfer_status":
			updates[field] = record.TransferStatus
		case "booking_date":
			updates[field] = record.BookingDate
		case "payment_date":
			updates[field] = record.PaymentDate
		case "transfer_date":
			updates[field] = record.TransferDate
		case "week_start":
			updates[field] = record.WeekStart
		case "debit_account":
			updates[field] = record.DebitAccount
		case "credit_account":
			updates[field] = record.CreditAccount
		case "reason":
			updates[field] = record.Reason
		}
	}
	return updates
}

func pickSnapshot(snapshot models.JSON, fields []string) models.JSON {
	picked := make(models.JSON, len(fields))
	for _, field := range fields {
		picked[field] = snapshot[field]
	}
	return picked
}

func adminIDPtr(adminID uint) *uint {
	if adminID == 0 {
		return nil
	}
	id := adminID
	return &id
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}
