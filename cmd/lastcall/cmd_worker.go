package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/thejerf/suture/v4"

	"github.com/rushteam/lastcall/refresh"
)

func newWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the periodic index refresh and the metrics endpoint",
		Long: `worker keeps the vector index fresh on refresh.interval and serves
/metrics and /healthz on metrics.addr until SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			rt, err := openRuntime(ctx, s)
			if err != nil {
				return err
			}
			defer rt.Close()

			job, err := rt.refreshJob()
			if err != nil {
				return err
			}

			sup := newSupervisor(rt.logger)
			sup.Add(refresh.NewScheduler(job, refresh.SchedulerConfig{
				RunOnStart: s.Refresh.OnStart,
				Interval:   s.Refresh.Interval,
				Timeout:    s.Refresh.Timeout,
			}, rt.logger))
			if s.Metrics.Addr != "" {
				sup.Add(newHTTPService(&http.Server{
					Addr:              s.Metrics.Addr,
					Handler:           newOpsMux(rt.index),
					ReadHeaderTimeout: 5 * time.Second,
				}, 10*time.Second))
				rt.logger.Info().Str("addr", s.Metrics.Addr).Msg("metrics endpoint enabled")
			}

			rt.logger.Info().Msg("worker started")
			err = sup.Serve(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			rt.logger.Info().Msg("worker stopped")
			return nil
		},
	}
}

// newSupervisor 创建根 supervisor，事件写入 zerolog。
func newSupervisor(logger zerolog.Logger) *suture.Supervisor {
	log := logger.With().Str("component", "supervisor").Logger()
	return suture.New("lastcall-worker", suture.Spec{
		EventHook: func(e suture.Event) {
			log.Warn().
				Int("event_type", int(e.Type())).
				Fields(e.Map()).
				Msg(e.String())
		},
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          10 * time.Second,
	})
}
