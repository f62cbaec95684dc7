package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blane-next/internal/logger"
	"github.com/blane-next/internal/provider"
	"github.com/blane-next/internal/queue"
	"github.com/blane-next/internal/service"

	"github.com/hibiken/asynq"
)

// settlementNotifier 结算邮件发送能力
type settlementNotifier interface {
	SendSettlementProcessedEmail(ctx context.Context, payload queue.SettlementProcessedEmailPayload) error
	SendWeeklyBankingReport(ctx context.Context, payload queue.WeeklyBankingReportEmailPayload) error
}

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
	notifier settlementNotifier
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	consumer := &Consumer{Container: c}
	if c != nil && c.NotificationService != nil {
		consumer.notifier = c.NotificationService
	}
	return consumer
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSettlementProcessedEmail, c.handleSettlementProcessedEmail)
	mux.HandleFunc(queue.TaskWeeklyBankingReportEmail, c.handleWeeklyBankingReportEmail)
}

func (c *Consumer) handleSettlementProcessedEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_settlement_email_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.SettlementProcessedEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_settlement_email_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.VendorID == 0 || len(payload.SettlementIDs) == 0 {
		logger.Debugw("worker_settlement_email_skip_invalid_payload", "vendor_id", payload.VendorID, "count", len(payload.SettlementIDs))
		return nil
	}
	if c.notifier == nil {
		logger.Warnw("worker_settlement_email_skip_notifier_nil", "vendor_id", payload.VendorID)
		return nil
	}
	ctx = logger.WithContext(ctx, logger.SW("task", queue.TaskSettlementProcessedEmail, "vendor_id", payload.VendorID))
	return classifySendError(ctx, c.notifier.SendSettlementProcessedEmail(ctx, payload), "worker_settlement_email")
}

func (c *Consumer) handleWeeklyBankingReportEmail(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_weekly_report_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.WeeklyBankingReportEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_weekly_report_unmarshal_failed", "error", err)
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if payload.WeekStart == "" || payload.Recipient == "" {
		logger.Debugw("worker_weekly_report_skip_invalid_payload", "week_start", payload.WeekStart)
		return nil
	}
	if c.notifier == nil {
		logger.Warnw("worker_weekly_report_skip_notifier_nil", "week_start", payload.WeekStart)
		return nil
	}
	ctx = logger.WithContext(ctx, logger.SW("task", queue.TaskWeeklyBankingReportEmail, "week_start", payload.WeekStart))
	return classifySendError(ctx, c.notifier.SendWeeklyBankingReport(ctx, payload), "worker_weekly_report")
}

// classifySendError 邮件未启用直接丢弃；收件人被拒不重试；其余交给队列重试
func classifySendError(ctx context.Context, err error, event string) error {
	if err == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	switch {
	case errors.Is(err, service.ErrEmailServiceDisabled), errors.Is(err, service.ErrEmailServiceNotConfigured):
		log.Debugw(event+"_skip_email_disabled", "error", err)
		return nil
	case errors.Is(err, service.ErrEmailRecipientRejected), errors.Is(err, service.ErrInvalidEmail):
		log.Warnw(event+"_recipient_rejected", "error", err)
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	default:
		log.Warnw(event+"_send_failed", "error", err)
		return err
	}
}
