package shared

import (
	"errors"

	"github.com/blane-next/internal/authz"
	"github.com/blane-next/internal/http/response"
	"github.com/blane-next/internal/i18n"
	"github.com/blane-next/internal/service"

	"github.com/gin-gonic/gin"
)

// MappedHandlerError 定义业务错误到接口错误响应的映射关系。
type MappedHandlerError struct {
	Target error
	Code   int
	Key    string
}

// ServiceErrorRules 业务错误映射表（按顺序匹配）
var ServiceErrorRules = []MappedHandlerError{
	{Target: service.ErrInvalidCredentials, Code: response.CodeUnauthorized, Key: "error.login_failed"},
	{Target: service.ErrInvalidPassword, Code: response.CodeBadRequest, Key: "error.invalid_password"},
	{Target: service.ErrPasswordTooShort, Code: response.CodeValidation, Key: "error.password_too_short"},

	{Target: service.ErrVendorNotFound, Code: response.CodeNotFound, Key: "error.vendor_not_found"},
	{Target: service.ErrCategoryNotFound, Code: response.CodeNotFound, Key: "error.category_not_found"},
	{Target: service.ErrOfferNotFound, Code: response.CodeNotFound, Key: "error.offer_not_found"},
	{Target: service.ErrBookingNotFound, Code: response.CodeNotFound, Key: "error.booking_not_found"},
	{Target: service.ErrSettlementNotFound, Code: response.CodeNotFound, Key: "error.settlement_not_found"},
	{Target: service.ErrCommissionRateNotFound, Code: response.CodeNotFound, Key: "error.commission_rate_not_found"},
	{Target: service.ErrNotFound, Code: response.CodeNotFound, Key: "error.not_found"},

	{Target: service.ErrCommissionRateInvalid, Code: response.CodeValidation, Key: "error.commission_rate_invalid"},
	{Target: service.ErrCommissionRateNotConfigured, Code: response.CodeValidation, Key: "error.commission_rate_not_configured"},
	{Target: service.ErrCommissionRateConflict, Code: response.CodeConflict, Key: "error.commission_rate_conflict"},
	{Target: service.ErrInvalidPaymentType, Code: response.CodeValidation, Key: "error.payment_type_invalid"},
	{Target: service.ErrInvalidTransferDay, Code: response.CodeValidation, Key: "error.transfer_day_invalid"},

	{Target: service.ErrOfferInactive, Code: response.CodeValidation, Key: "error.offer_inactive"},
	{Target: service.ErrQuantityInvalid, Code: response.CodeValidation, Key: "error.quantity_invalid"},
	{Target: service.ErrMaxQuantityExceeded, Code: response.CodeValidation, Key: "error.max_quantity_exceeded"},
	{Target: service.ErrPartialPaymentNotAllowed, Code: response.CodeValidation, Key: "error.partial_payment_not_allowed"},
	{Target: service.ErrBookingStatusInvalid, Code: response.CodeConflict, Key: "error.booking_status_invalid"},
	{Target: service.ErrBookingKindInvalid, Code: response.CodeBadRequest, Key: "error.booking_kind_invalid"},
	{Target: service.ErrPaymentAmountMismatch, Code: response.CodeValidation, Key: "error.payment_amount_mismatch"},

	{Target: service.ErrSettlementTransitionInvalid, Code: response.CodeConflict, Key: "error.settlement_transition_invalid"},
	{Target: service.ErrRevertNoteRequired, Code: response.CodeValidation, Key: "error.revert_note_required"},
	{Target: service.ErrSettlementNoFields, Code: response.CodeValidation, Key: "error.settlement_no_fields"},
	{Target: service.ErrTransferDateStatusInvalid, Code: response.CodeValidation, Key: "error.transfer_date_status_invalid"},
	{Target: service.ErrSettlementIDsEmpty, Code: response.CodeValidation, Key: "error.settlement_ids_empty"},

	{Target: service.ErrReportRangeInvalid, Code: response.CodeValidation, Key: "error.report_range_invalid"},
	{Target: service.ErrReportFormatInvalid, Code: response.CodeValidation, Key: "error.report_format_invalid"},
	{Target: service.ErrInvalidEmail, Code: response.CodeValidation, Key: "error.email_invalid"},
	{Target: authz.ErrUnknownRole, Code: response.CodeValidation, Key: "error.role_invalid"},

	{Target: service.ErrValidation, Code: response.CodeValidation, Key: "error.validation"},
}

// RespondServiceError 将业务错误映射为接口错误；未匹配时按 500 返回并记录原始错误
func RespondServiceError(c *gin.Context, err error) {
	var denied *service.AdmissionDeniedError
	if errors.As(err, &denied) {
		msg := i18n.Sprintf(i18n.ResolveLocale(c), "error.admission_denied", denied.Remaining)
		RespondErrorWithMsg(c, response.CodeConflict, msg, nil)
		return
	}
	for _, rule := range ServiceErrorRules {
		if errors.Is(err, rule.Target) {
			RespondError(c, rule.Code, rule.Key, nil)
			return
		}
	}
	RespondError(c, response.CodeInternal, "error.internal", err)
}
