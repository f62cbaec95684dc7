package queue

import (
	"encoding/json"

	"github.com/blane-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSettlementProcessedEmail 结算已处理邮件通知任务
	TaskSettlementProcessedEmail = constants.TaskSettlementProcessedEmail
	// TaskWeeklyBankingReportEmail 每周银行转账报表邮件任务
	TaskWeeklyBankingReportEmail = constants.TaskWeeklyBankingReportEmail
)

// SettlementProcessedEmailPayload 结算已处理邮件任务载荷（每个商家一条）
type SettlementProcessedEmailPayload struct {
	VendorID      uint   `json:"vendor_id"`
	SettlementIDs []uint `json:"settlement_ids"`
	TransferDate  string `json:"transfer_date,omitempty"`
}

// WeeklyBankingReportEmailPayload 每周银行报表邮件任务载荷
type WeeklyBankingReportEmailPayload struct {
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
	Recipient string `json:"recipient"`
}

// NewSettlementProcessedEmailTask 创建结算已处理邮件任务
func NewSettlementProcessedEmailTask(payload SettlementProcessedEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementProcessedEmail, body), nil
}

// NewWeeklyBankingReportEmailTask 创建每周银行报表邮件任务
func NewWeeklyBankingReportEmailTask(payload WeeklyBankingReportEmailPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWeeklyBankingReportEmail, body), nil
}
