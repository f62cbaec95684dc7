package public

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/blane-next/internal/constants"
	"github.com/blane-next/internal/payment/cmi"
	"github.com/blane-next/internal/service"

	"github.com/gin-gonic/gin"
)

const callbackLogValueLimit = 256

// CMICallback CMI 服务端回调：验签 -> 金额校验 -> 确认支付并生成结算记录
// 网关只识别纯文本 ACTION=POSTAUTH / FAILURE 应答。
func (h *Handler) CMICallback(c *gin.Context) {
	log := requestLog(c)
	form, err := parseCallbackForm(c)
	if err != nil {
		log.Warnw("cmi_callback_form_parse_failed", "error", err)
		c.String(http.StatusOK, constants.CMICallbackFail)
		return
	}
	log.Infow("cmi_callback_received",
		"client_ip", c.ClientIP(),
		"oid", strings.TrimSpace(getFirstValue(form, "oid")),
		"trans_id", strings.TrimSpace(getFirstValue(form, "TransId")),
		"proc_return_code", strings.TrimSpace(getFirstValue(form, "ProcReturnCode")),
		"raw_form", callbackRawFormForLog(form),
	)
	callback, err := cmi.ParseCallback(h.Config.CMI.StoreKey, form, time.Now())
	if err != nil {
		if errors.Is(err, cmi.ErrSignatureInvalid) || errors.Is(err, cmi.ErrConfigInvalid) {
			log.Warnw("cmi_callback_signature_invalid", "error", err)
		} else {
			log.Warnw("cmi_callback_invalid", "error", err)
		}
		c.String(http.StatusOK, constants.CMICallbackFail)
		return
	}
	if !callback.Approved() {
		log.Infow("cmi_callback_declined",
			"oid", callback.OrderID,
			"proc_return_code", callback.ProcReturnCode,
			"err_msg", truncateCallbackLogValue(callback.ErrMsg),
		)
		c.String(http.StatusOK, constants.CMICallbackFail)
		return
	}
	result, err := h.BookingService.ConfirmPaymentByReference(c.Request.Context(), callback.OrderID, callback.Amount, callback.PaidAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentAmountMismatch):
			log.Warnw("cmi_callback_amount_mismatch", "oid", callback.OrderID, "amount", callback.Amount.String(), "error", err)
		case errors.Is(err, service.ErrBookingNotFound):
			log.Warnw("cmi_callback_booking_not_found", "oid", callback.OrderID)
		default:
			log.Errorw("cmi_callback_confirm_failed", "oid", callback.OrderID, "error", err)
		}
		c.String(http.StatusOK, constants.CMICallbackFail)
		return
	}
	log.Infow("cmi_callback_confirmed",
		"oid", callback.OrderID,
		"trans_id", callback.TransID,
		"booking_id", result.BookingID,
		"settlement_created", result.Created,
	)
	c.String(http.StatusOK, constants.CMICallbackSuccess)
}

func parseCallbackForm(c *gin.Context) (map[string][]string, error) {
	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	if len(c.Request.PostForm) > 0 {
		return c.Request.PostForm, nil
	}
	return c.Request.Form, nil
}

func getFirstValue(form map[string][]string, key string) string {
	if values, ok := form[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

func truncateCallbackLogValue(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) <= callbackLogValueLimit {
		return raw
	}
	return raw[:callbackLogValueLimit] + "...(truncated)"
}

// callbackRawFormForLog 回调原文（截断，去掉签名字段）
func callbackRawFormForLog(form map[string][]string) map[string]interface{} {
	result := make(map[string]interface{}, len(form))
	for key, values := range form {
		if strings.EqualFold(key, "HASH") {
			continue
		}
		if len(values) == 0 {
			result[key] = ""
			continue
		}
		result[key] = truncateCallbackLogValue(values[0])
	}
	return result
}
