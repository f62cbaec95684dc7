package admin

import (
	handlershared "github.com/blane-next/internal/http/handlers/shared"
	"github.com/blane-next/internal/models"
	"github.com/blane-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ConfirmPaymentRequest 后台确认支付请求
type ConfirmPaymentRequest struct {
	PaymentType string        `json:"payment_type"`
	PaidAmount  *models.Money `json:"paid_amount"`
	PaidAt      *string       `json:"paid_at"`
}

// ConfirmBookingPayment 确认订单/预约支付并生成结算记录
func (h *Handler) ConfirmBookingPayment(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	paidAt, err := parseOptionalDate(req.PaidAt)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	result, err := h.BookingService.ConfirmPayment(c.Request.Context(), service.ConfirmPaymentInput{
		Kind:        c.Param("kind"),
		ID:          id,
		PaymentType: req.PaymentType,
		PaidAmount:  req.PaidAmount,
		PaidAt:      paidAt,
		AdminID:     adminID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("booking_payment_confirmed",
		"admin_id", adminID,
		"kind", result.Kind,
		"booking_id", result.BookingID,
		"settlement_created", result.Created,
	)
	handlershared.Success(c, result)
}

// CancelBooking 取消订单/预约并释放容量
func (h *Handler) CancelBooking(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	kind := c.Param("kind")
	if err := h.BookingService.CancelBooking(c.Request.Context(), kind, id); err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("booking_cancelled", "admin_id", adminID, "kind", kind, "booking_id", id)
	handlershared.Success(c, gin.H{"kind": kind, "id": id})
}
