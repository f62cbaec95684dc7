package app

import (
	"errors"

	"github.com/blane-next/internal/config"
	"github.com/blane-next/internal/provider"
	"github.com/blane-next/internal/router"
	"github.com/blane-next/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine, err := router.SetupRouter(cfg, container)
		if err != nil {
			return nil, err
		}
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		httpService := NewHTTPService(addr, engine)
		services = append(services, httpService)
	}

	// 初始化 Worker 服务；周报调度跟随 worker，队列关闭时由 all 模式进程直接发送
	if mode == ModeAll || mode == ModeWorker {
		if cfg.Queue.Enabled || mode == ModeWorker {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		}
		if container.NotificationService != nil {
			scheduler := worker.NewWeeklyReportScheduler(container.NotificationService, cfg.Settlement.WeeklyReportCheckMinutes)
			services = append(services, scheduler)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
