package public

import (
	"strconv"
	"strings"

	handlershared "github.com/blane-next/internal/http/handlers/shared"
	"github.com/blane-next/internal/http/response"
	"github.com/blane-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetOfferAvailability 查询优惠某日剩余容量
func (h *Handler) GetOfferAvailability(c *gin.Context) {
	offerID, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	day := strings.TrimSpace(c.Query("date"))
	if day == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	quantity := 1
	if raw := strings.TrimSpace(c.Query("quantity")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		quantity = parsed
	}
	decision, err := h.BookingService.Availability(offerID, day, quantity)
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	handlershared.Success(c, decision)
}

// CreateBookingRequest 下单请求（订单与预约共用）
type CreateBookingRequest struct {
	OfferID         uint   `json:"offer_id" binding:"required"`
	Date            string `json:"date" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required"`
	PaymentType     string `json:"payment_type"`
	CustomerName    string `json:"customer_name" binding:"required"`
	CustomerEmail   string `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone   string `json:"customer_phone"`
	TimeSlot        string `json:"time_slot"`
	NumberOfPersons int    `json:"number_of_persons"`
}

func (req CreateBookingRequest) toInput() service.CreateBookingInput {
	return service.CreateBookingInput{
		OfferID:         req.OfferID,
		Day:             req.Date,
		Quantity:        req.Quantity,
		PaymentType:     req.PaymentType,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		TimeSlot:        req.TimeSlot,
		NumberOfPersons: req.NumberOfPersons,
	}
}

// CreateOrder 创建订单（容量校验与写入在同一事务）
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	order, err := h.BookingService.CreateOrder(c.Request.Context(), req.toInput())
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	handlershared.Created(c, order)
}

// CreateReservation 创建预约
func (h *Handler) CreateReservation(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlershared.RespondBindError(c, err)
		return
	}
	reservation, err := h.BookingService.CreateReservation(c.Request.Context(), req.toInput())
	if err != nil {
		handlershared.RespondServiceError(c, err)
		return
	}
	handlershared.Created(c, reservation)
}
