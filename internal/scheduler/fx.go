package scheduler

import (
	"context"
	"time"

	"github.com/leaseway/leaseway/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(Run),
)

func ProvideConfig(cfg config.Config) Config {
	return Config{
		RunInterval:       time.Duration(cfg.Scheduler.RunIntervalMinutes) * time.Minute,
		RentDueOffsetDays: cfg.Scheduler.RentDueOffsetDays,
		EnabledJobs:       cfg.Scheduler.EnabledJobs,
	}.withDefaults()
}

func Run(lc fx.Lifecycle, sched *Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go sched.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
