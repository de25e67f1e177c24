package refresh

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Runner 是可被调度的刷新任务（*Job 实现）。
type Runner interface {
	Run(ctx context.Context) (*Report, error)
}

// SchedulerConfig 调度配置。
type SchedulerConfig struct {
	// RunOnStart 启动时立即刷新一次
	RunOnStart bool

	// Interval 刷新周期，<= 0 时为 24h
	Interval time.Duration

	// Timeout 单次刷新超时，<= 0 时为 30m
	Timeout time.Duration
}

// Scheduler 周期性执行刷新任务，实现 suture.Service。
// 单次刷新失败只记录日志，旧索引继续服务，等待下一个周期重试。
type Scheduler struct {
	runner Runner
	config SchedulerConfig
	logger zerolog.Logger

	// runs 每次刷新完成后写入（测试用，可为空）
	runs chan<- error
}

// NewScheduler 创建调度器。
func NewScheduler(runner Runner, cfg SchedulerConfig, logger zerolog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Minute
	}
	return &Scheduler{
		runner: runner,
		config: cfg,
		logger: logger.With().Str("service", "refresh-scheduler").Logger(),
	}
}

// Serve 实现 suture.Service。
func (s *Scheduler) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("run_on_start", s.config.RunOnStart).
		Dur("interval", s.config.Interval).
		Msg("refresh scheduler starting")

	if s.config.RunOnStart {
		s.runOnce(ctx)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("refresh scheduler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	report, err := s.runner.Run(runCtx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("scheduled refresh failed, keeping current index")
	} else {
		s.logger.Info().
			Int("embedded", report.Embedded).
			Int("failed", report.Failed).
			Dur("duration", report.Duration).
			Msg("scheduled refresh complete")
	}
	if s.runs != nil {
		select {
		case s.runs <- err:
		case <-ctx.Done():
		}
	}
}

// String 返回服务名（suture 日志使用）。
func (s *Scheduler) String() string {
	return "refresh-scheduler"
}
