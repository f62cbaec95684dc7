package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound 资源不存在
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials 账号或密码错误
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidPassword 原密码错误
	ErrInvalidPassword = errors.New("invalid password")
	// ErrPasswordTooShort 新密码长度不足
	ErrPasswordTooShort = errors.New("password too short")
	// ErrValidation 参数非法
	ErrValidation = errors.New("validation failed")

	// ErrVendorNotFound 商家不存在
	ErrVendorNotFound = errors.New("vendor not found")
	// ErrCategoryNotFound 分类不存在
	ErrCategoryNotFound = errors.New("category not found")
	// ErrOfferNotFound 优惠不存在
	ErrOfferNotFound = errors.New("offer not found")
	// ErrOfferInactive 优惠已下架
	ErrOfferInactive = errors.New("offer inactive")
	// ErrBookingNotFound 预订不存在
	ErrBookingNotFound = errors.New("booking not found")
	// ErrSettlementNotFound 结算记录不存在
	ErrSettlementNotFound = errors.New("settlement not found")
	// ErrCommissionRateNotFound 佣金费率不存在
	ErrCommissionRateNotFound = errors.New("commission rate not found")

	// ErrCommissionRateInvalid 佣金率超出 0-100
	ErrCommissionRateInvalid = errors.New("commission rate must be between 0 and 100")
	// ErrCommissionRateNotConfigured 全额支付未配置任何费率
	ErrCommissionRateNotConfigured = errors.New("commission rate not configured")
	// ErrCommissionRateConflict 同一 (分类, 商家) 并发写入生效费率冲突
	ErrCommissionRateConflict = errors.New("active commission rate conflict")
	// ErrInvalidPaymentType 支付类型非法
	ErrInvalidPaymentType = errors.New("invalid payment type")
	// ErrInvalidTransferDay 转账处理日非法
	ErrInvalidTransferDay = errors.New("invalid transfer processing day")

	// ErrQuantityInvalid 数量必须不小于 1
	ErrQuantityInvalid = errors.New("quantity must be at least 1")
	// ErrMaxQuantityExceeded 超过单次预订上限
	ErrMaxQuantityExceeded = errors.New("max quantity per booking exceeded")
	// ErrAdmissionDenied 每日容量不足
	ErrAdmissionDenied = errors.New("daily capacity exceeded")
	// ErrPartialPaymentNotAllowed 优惠不支持部分支付
	ErrPartialPaymentNotAllowed = errors.New("partial payment not allowed")
	// ErrBookingStatusInvalid 预订状态不允许当前操作
	ErrBookingStatusInvalid = errors.New("booking status invalid")
	// ErrBookingKindInvalid 预订类型非法
	ErrBookingKindInvalid = errors.New("invalid booking kind")

	// ErrSettlementTransitionInvalid 非法的结算状态流转
	ErrSettlementTransitionInvalid = errors.New("settlement transition not allowed")
	// ErrRevertNoteRequired 回退到待处理必须填写备注
	ErrRevertNoteRequired = errors.New("revert note required")
	// ErrSettlementNoFields 未提供任何需要更新的字段
	ErrSettlementNoFields = errors.New("no settlement fields to update")
	// ErrTransferDateStatusInvalid 转账日期只能出现在已处理/已完成的记录上
	ErrTransferDateStatusInvalid = errors.New("transfer date not allowed for settlement status")
	// ErrSettlementIDsEmpty 批量操作未指定记录
	ErrSettlementIDsEmpty = errors.New("settlement ids required")

	// ErrReportRangeInvalid 报表日期区间非法
	ErrReportRangeInvalid = errors.New("invalid report range")
	// ErrReportFormatInvalid 报表格式非法
	ErrReportFormatInvalid = errors.New("invalid report format")

	// ErrEmailServiceDisabled 邮件服务未启用
	ErrEmailServiceDisabled = errors.New("email service disabled")
	// ErrEmailServiceNotConfigured 邮件服务未配置
	ErrEmailServiceNotConfigured = errors.New("email service not configured")
	// ErrEmailRecipientRejected 收件人被邮件服务器拒绝
	ErrEmailRecipientRejected = errors.New("email recipient rejected")
	// ErrInvalidEmail 邮箱格式非法
	ErrInvalidEmail = errors.New("invalid email")

	// ErrPaymentSignatureInvalid 支付回调签名校验失败
	ErrPaymentSignatureInvalid = errors.New("payment signature invalid")
	// ErrPaymentAmountMismatch 回调金额与预订不一致
	ErrPaymentAmountMismatch = errors.New("payment amount mismatch")
)

// AdmissionDeniedError 容量拒绝错误，携带剩余数量
type AdmissionDeniedError struct {
	OfferID   uint
	Day       string
	Requested int
	Remaining int
}

// Error 实现 error 接口
func (e *AdmissionDeniedError) Error() string {
	return fmt.Sprintf("%s: offer %d on %s requested %d, remaining %d", ErrAdmissionDenied.Error(), e.OfferID, e.Day, e.Requested, e.Remaining)
}

// Unwrap 支持 errors.Is(err, ErrAdmissionDenied)
func (e *AdmissionDeniedError) Unwrap() error {
	return ErrAdmissionDenied
}

// TransitionError 非法状态流转详情
type TransitionError struct {
	SettlementID uint
	From         string
	Action       string
}

// Error 实现 error 接口
func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: settlement %d cannot %s from %s", ErrSettlementTransitionInvalid.Error(), e.SettlementID, e.Action, e.From)
}

// Unwrap 支持 errors.Is(err, ErrSettlementTransitionInvalid)
func (e *TransitionError) Unwrap() error {
	return ErrSettlementTransitionInvalid
}
