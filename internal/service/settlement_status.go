package service

import (
	"strings"

	"github.com/blane-next/internal/constants"
)

// SettlementTransition 结算状态流转动作
type SettlementTransition string

const (
	// TransitionProcess pending -> processed
	TransitionProcess SettlementTransition = "process"
	// TransitionComplete processed -> complete
	TransitionComplete SettlementTransition = "complete"
	// TransitionRevert processed -> pending（必须填写备注）
	TransitionRevert SettlementTransition = "revert"
)

// nextSettlementStatus 显式状态机，未列出的组合一律拒绝
func nextSettlementStatus(current string, transition SettlementTransition) (string, bool) {
	switch normalizeSettlementStatus(current) {
	case constants.SettlementStatusPending:
		if transition == TransitionProcess {
			return constants.SettlementStatusProcessed, true
		}
	case constants.SettlementStatusProcessed:
		switch transition {
		case TransitionComplete:
			return constants.SettlementStatusComplete, true
		case TransitionRevert:
			return constants.SettlementStatusPending, true
		}
	case constants.SettlementStatusComplete:
		// 终态
	}
	return "", false
}

// transitionForStatusChange 将通用字段更新中的状态变化映射为流转动作
func transitionForStatusChange(from, to string) (SettlementTransition, bool) {
	from = normalizeSettlementStatus(from)
	to = normalizeSettlementStatus(to)
	for _, transition := range []SettlementTransition{TransitionProcess, TransitionComplete, TransitionRevert} {
		if next, ok := nextSettlementStatus(from, transition); ok && next == to {
			return transition, true
		}
	}
	return "", false
}

func normalizeSettlementStatus(status string) string {
	return strings.ToLower(strings.TrimSpace(status))
}

// IsValidSettlementStatus 校验结算状态值
func IsValidSettlementStatus(status string) bool {
	switch normalizeSettlementStatus(status) {
	case constants.SettlementStatusPending, constants.SettlementStatusProcessed, constants.SettlementStatusComplete:
		return true
	}
	return false
}
