package admin

import (
	"strings"

	handlershared "github.com/blane-next/internal/http/handlers/shared"
	"github.com/blane-next/internal/http/response"
	"github.com/blane-next/internal/i18n"
	"github.com/blane-next/internal/repository"
	"github.com/blane-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ListSettlements 结算记录列表
func (h *Handler) ListSettlements(c *gin.Context) {
	page, pageSize := handlershared.PaginationFromQuery(c)
	vendorID, ok := handlershared.ParseUintQuery(c, "vendor_id")
	if !ok {
		return
	}
	filter := repository.SettlementListFilter{
		Page:           page,
		PageSize:       pageSize,
		VendorID:       vendorID,
		TransferStatus: strings.TrimSpace(c.Query("transfer_status")),
		PaymentType:    strings.TrimSpace(c.Query("payment_type")),
		WeekFrom:       strings.TrimSpace(c.Query("week_from")),
		WeekTo:         strings.TrimSpace(c.Query("week_to")),
		Search:         strings.TrimSpace(c.Query("search")),
	}
	if filter.TransferStatus != "" && !service.IsValidSettlementStatus(filter.TransferStatus) {
		respondError(c, response.CodeBadRequest, "error.settlement_status_invalid", nil)
		return
	}
	records, total, err := h.SettlementService.List(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	handlershared.SuccessWithPage(c, records, total, page, pageSize)
}

// GetSettlement 结算详情（含审计日志）
func (h *Handler) GetSettlement(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.SettlementService.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	handlershared.Success(c, detail)
}

// GetSettlementLogs 结算审计日志
func (h *Handler) GetSettlementLogs(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	logs, err := h.SettlementService.Logs(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	handlershared.Success(c, logs)
}

// BulkSettlementRequest 批量流转请求
type BulkSettlementRequest struct {
	IDs          []uint  `json:"ids" binding:"required"`
	TransferDate *string `json:"transfer_date"`
	Note         string  `json:"note"`
}

// MarkSettlementsProcessed 批量标记为已处理
func (h *Handler) MarkSettlementsProcessed(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req BulkSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	transferDate, err := parseOptionalDate(req.TransferDate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	result, err := h.SettlementService.MarkAsProcessed(c.Request.Context(), req.IDs, adminID, transferDate, req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("settlements_marked_processed",
		"admin_id", adminID,
		"affected", result.AffectedCount,
		"skipped", len(result.SkippedIDs),
	)
	response.Success(c, i18n.Sprintf(i18n.ResolveLocale(c), "message.settlements_processed", result.AffectedCount), result)
}

// MarkSettlementsComplete 批量标记为已完成
func (h *Handler) MarkSettlementsComplete(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req BulkSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	result, err := h.SettlementService.MarkAsComplete(c.Request.Context(), req.IDs, adminID, req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("settlements_marked_complete",
		"admin_id", adminID,
		"affected", result.AffectedCount,
		"skipped", len(result.SkippedIDs),
	)
	response.Success(c, i18n.Sprintf(i18n.ResolveLocale(c), "message.settlements_completed", result.AffectedCount), result)
}

// RevertSettlementRequest 回退请求（备注必填）
type RevertSettlementRequest struct {
	Note string `json:"note"`
}

// RevertSettlement 已处理回退为待处理
func (h *Handler) RevertSettlement(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req RevertSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	record, err := h.SettlementService.RevertToPending(id, adminID, req.Note)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("settlement_reverted", "admin_id", adminID, "settlement_id", id)
	handlershared.Success(c, record)
}

// UpdateSettlementRequest 结算通用字段更新
type UpdateSettlementRequest struct {
	TransferStatus    *string `json:"transfer_status"`
	BookingDate       *string `json:"booking_date"`
	PaymentDate       *string `json:"payment_date"`
	TransferDate      *string `json:"transfer_date"`
	ClearTransferDate bool    `json:"clear_transfer_date"`
	DebitAccount      *string `json:"debit_account"`
	CreditAccount     *string `json:"credit_account"`
	Reason            *string `json:"reason"`
	Note              string  `json:"note"`
}

// UpdateSettlement 更新结算字段（状态变更仍经过状态机）
func (h *Handler) UpdateSettlement(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateSettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	input := service.SettlementUpdateInput{
		TransferStatus:    req.TransferStatus,
		ClearTransferDate: req.ClearTransferDate,
		DebitAccount:      req.DebitAccount,
		CreditAccount:     req.CreditAccount,
		Reason:            req.Reason,
		Note:              req.Note,
	}
	var err error
	if input.BookingDate, err = parseOptionalDate(req.BookingDate); err != nil {
		respondServiceError(c, err)
		return
	}
	if input.PaymentDate, err = parseOptionalDate(req.PaymentDate); err != nil {
		respondServiceError(c, err)
		return
	}
	if input.TransferDate, err = parseOptionalDate(req.TransferDate); err != nil {
		respondServiceError(c, err)
		return
	}
	record, err := h.SettlementService.UpdateStatus(id, adminID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("settlement_updated", "admin_id", adminID, "settlement_id", id)
	handlershared.Success(c, record)
}

// UpdateSettlementDatesRequest 日期修正请求
type UpdateSettlementDatesRequest struct {
	BookingDate  *string `json:"booking_date"`
	PaymentDate  *string `json:"payment_date"`
	TransferDate *string `json:"transfer_date"`
	Note         string  `json:"note"`
}

// UpdateSettlementDates 修正日期（重新计算周归属）
func (h *Handler) UpdateSettlementDates(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateSettlementDatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	input := service.SettlementDatesInput{Note: req.Note}
	var err error
	if input.BookingDate, err = parseOptionalDate(req.BookingDate); err != nil {
		respondServiceError(c, err)
		return
	}
	if input.PaymentDate, err = parseOptionalDate(req.PaymentDate); err != nil {
		respondServiceError(c, err)
		return
	}
	if input.TransferDate, err = parseOptionalDate(req.TransferDate); err != nil {
		respondServiceError(c, err)
		return
	}
	record, err := h.SettlementService.UpdateDates(id, adminID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("settlement_dates_updated", "admin_id", adminID, "settlement_id", id, "week_start", record.WeekStart)
	handlershared.Success(c, record)
}
