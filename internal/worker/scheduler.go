package worker

import (
	"context"
	"time"

	"github.com/blane-next/internal/logger"
)

const defaultWeeklyReportCheckInterval = 30 * time.Minute

type weeklyReportDispatcher interface {
	DispatchWeeklyReportIfDue(ctx context.Context, now time.Time) (bool, error)
}

// WeeklyReportScheduler 定时检查是否到达转账处理日并投递上周报表
type WeeklyReportScheduler struct {
	dispatcher weeklyReportDispatcher
	interval   time.Duration
	now        func() time.Time
	done       chan struct{}
}

// NewWeeklyReportScheduler 创建周报调度器，checkMinutes <= 0 时使用默认间隔
func NewWeeklyReportScheduler(dispatcher weeklyReportDispatcher, checkMinutes int) *WeeklyReportScheduler {
	interval := defaultWeeklyReportCheckInterval
	if checkMinutes > 0 {
		interval = time.Duration(checkMinutes) * time.Minute
	}
	return &WeeklyReportScheduler{
		dispatcher: dispatcher,
		interval:   interval,
		now:        time.Now,
		done:       make(chan struct{}),
	}
}

// Name 服务名称
func (s *WeeklyReportScheduler) Name() string {
	return "weekly-report-scheduler"
}

// Start 阻塞运行直到 ctx 取消
func (s *WeeklyReportScheduler) Start(ctx context.Context) error {
	defer close(s.done)
	if s.dispatcher == nil {
		<-ctx.Done()
		return nil
	}
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// Stop 等待当前轮次结束
func (s *WeeklyReportScheduler) Stop(ctx context.Context) error {
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *WeeklyReportScheduler) runOnce(ctx context.Context) {
	dispatched, err := s.dispatcher.DispatchWeeklyReportIfDue(ctx, s.now())
	if err != nil {
		logger.Warnw("weekly_report_dispatch_failed", "error", err)
		return
	}
	if dispatched {
		logger.Infow("weekly_report_dispatched")
	}
}
