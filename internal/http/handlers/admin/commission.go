package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/blane-next/internal/http/handlers/shared"
	"github.com/blane-next/internal/http/response"
	"github.com/blane-next/internal/repository"
	"github.com/blane-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateCommissionRateRequest 创建费率请求
type CreateCommissionRateRequest struct {
	CategoryID            uint             `json:"category_id" binding:"required"`
	VendorID              *uint            `json:"vendor_id"`
	CommissionRate        *decimal.Decimal `json:"commission_rate" binding:"required"`
	PartialCommissionRate *decimal.Decimal `json:"partial_commission_rate"`
	IsActive              *bool            `json:"is_active"`
}

// UpdateCommissionRateRequest 更新费率请求
type UpdateCommissionRateRequest struct {
	CommissionRate        *decimal.Decimal `json:"commission_rate"`
	PartialCommissionRate *decimal.Decimal `json:"partial_commission_rate"`
	ClearPartialRate      bool             `json:"clear_partial_rate"`
	IsActive              *bool            `json:"is_active"`
}

// ListCommissionRates 费率列表
func (h *Handler) ListCommissionRates(c *gin.Context) {
	page, pageSize := handlershared.PaginationFromQuery(c)
	categoryID, ok := handlershared.ParseUintQuery(c, "category_id")
	if !ok {
		return
	}
	vendorID, ok := handlershared.ParseUintQuery(c, "vendor_id")
	if !ok {
		return
	}
	filter := repository.CommissionRateListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   categoryID,
		VendorID:     vendorID,
		OnlyDefaults: c.Query("only_defaults") == "true",
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		filter.IsActive = &active
	}
	rates, total, err := h.CommissionService.ListRates(filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	handlershared.SuccessWithPage(c, rates, total, page, pageSize)
}

// GetCommissionRate 费率详情
func (h *Handler) GetCommissionRate(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	rate, err := h.CommissionService.GetRate(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	handlershared.Success(c, rate)
}

// CreateCommissionRate 创建费率（同一分类/商家组合的旧生效费率自动失效）
func (h *Handler) CreateCommissionRate(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req CreateCommissionRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	rate, err := h.CommissionService.CreateRate(adminID, service.CreateCommissionRateInput{
		CategoryID:            req.CategoryID,
		VendorID:              req.VendorID,
		CommissionRate:        *req.CommissionRate,
		PartialCommissionRate: req.PartialCommissionRate,
		IsActive:              req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("commission_rate_created", "admin_id", adminID, "rate_id", rate.ID, "category_id", rate.CategoryID)
	handlershared.Created(c, rate)
}

// UpdateCommissionRate 更新费率
func (h *Handler) UpdateCommissionRate(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateCommissionRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	rate, err := h.CommissionService.UpdateRate(adminID, id, service.UpdateCommissionRateInput{
		CommissionRate:        req.CommissionRate,
		PartialCommissionRate: req.PartialCommissionRate,
		ClearPartialRate:      req.ClearPartialRate,
		IsActive:              req.IsActive,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("commission_rate_updated", "admin_id", adminID, "rate_id", rate.ID)
	handlershared.Success(c, rate)
}

// DeactivateCommissionRate 停用费率
func (h *Handler) DeactivateCommissionRate(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	rate, err := h.CommissionService.DeactivateRate(adminID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("commission_rate_deactivated", "admin_id", adminID, "rate_id", rate.ID)
	handlershared.Success(c, rate)
}

// ResolveCommissionRate 解析某商家/分类/支付方式的生效费率
func (h *Handler) ResolveCommissionRate(c *gin.Context) {
	vendorID, ok := handlershared.ParseUintQuery(c, "vendor_id")
	if !ok {
		return
	}
	categoryID, ok := handlershared.ParseUintQuery(c, "category_id")
	if !ok {
		return
	}
	if vendorID == 0 || categoryID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	resolution, err := h.CommissionService.Resolve(c.Request.Context(), vendorID, categoryID, c.DefaultQuery("payment_type", "full"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	handlershared.Success(c, resolution)
}

// GetVendorEffectiveRates 商家各分类费率并列视图
func (h *Handler) GetVendorEffectiveRates(c *gin.Context) {
	vendorID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	rates, err := h.CommissionService.EffectiveRates(c.Request.Context(), vendorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	handlershared.Success(c, rates)
}

// UpdateVendorCustomRateRequest 商家自定义费率（null 表示清除）
type UpdateVendorCustomRateRequest struct {
	CustomCommissionRate *decimal.Decimal `json:"custom_commission_rate"`
}

// UpdateVendorCustomRate 设置商家自定义费率（仅展示与快照，不参与费率解析）
func (h *Handler) UpdateVendorCustomRate(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	vendorID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req UpdateVendorCustomRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	vendor, err := h.CommissionService.UpdateVendorCustomRate(adminID, vendorID, req.CustomCommissionRate)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("vendor_custom_rate_updated", "admin_id", adminID, "vendor_id", vendorID)
	handlershared.Success(c, vendor)
}

// CommissionSettingsRequest 佣金全局配置更新请求
type CommissionSettingsRequest struct {
	PartialPaymentCommissionRate *decimal.Decimal `json:"partial_payment_commission_rate"`
	VatRate                      *decimal.Decimal `json:"vat_rate"`
	SettlementBankName           *string          `json:"settlement_bank_name"`
	SettlementBankAccount        *string          `json:"settlement_bank_account"`
	TransferProcessingDay        *string          `json:"transfer_processing_day"`
	FinanceEmail                 *string          `json:"finance_email"`
}

// GetCommissionSettings 获取佣金全局配置
func (h *Handler) GetCommissionSettings(c *gin.Context) {
	settings, err := h.CommissionSettingsService.Get(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	handlershared.Success(c, settings)
}

// UpdateCommissionSettings 更新佣金全局配置
func (h *Handler) UpdateCommissionSettings(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req CommissionSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	settings, err := h.CommissionSettingsService.Update(c.Request.Context(), adminID, service.CommissionSettingsInput{
		PartialPaymentCommissionRate: req.PartialPaymentCommissionRate,
		VatRate:                      req.VatRate,
		SettlementBankName:           req.SettlementBankName,
		SettlementBankAccount:        req.SettlementBankAccount,
		TransferProcessingDay:        req.TransferProcessingDay,
		FinanceEmail:                 req.FinanceEmail,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("commission_settings_updated", "admin_id", adminID)
	handlershared.Success(c, settings)
}
