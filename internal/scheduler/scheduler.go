// Package scheduler runs the periodic reconciliation jobs: the activation
// sweep, rent-receipt generation, and the expiry sweep. Every job is safe
// to run more than once for the same period; the underlying writes are
// conditional or insert-unique.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/leaseway/leaseway/internal/clock"
	contractdomain "github.com/leaseway/leaseway/internal/contract/domain"
	obsmetrics "github.com/leaseway/leaseway/internal/observability/metrics"
	rentdomain "github.com/leaseway/leaseway/internal/rent/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

type Params struct {
	fx.In

	Log          *zap.Logger
	Clock        clock.Clock
	ContractSvc  contractdomain.Service
	ContractRepo contractdomain.Repository
	RentSvc      rentdomain.Service
	Config       Config `optional:"true"`
}

type Scheduler struct {
	log          *zap.Logger
	cfg          Config
	clock        clock.Clock
	contractSvc  contractdomain.Service
	contractRepo contractdomain.Repository
	rentSvc      rentdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.ContractSvc == nil || p.ContractRepo == nil || p.RentSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:          p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:          p.Config.withDefaults(),
		clock:        p.Clock,
		contractSvc:  p.ContractSvc,
		contractRepo: p.ContractRepo,
		rentSvc:      p.RentSvc,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := s.log.With(zap.String("job", name))
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err == nil {
		return nil
	}

	// A deadline hit mid-batch is a soft timeout: progress so far is
	// committed and the next run picks up the rest.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		schedMetrics.IncJobTimeout(name)
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	schedMetrics.IncJobError(name, err)
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{"activation_sweep", func(ctx context.Context) error {
			return s.runJob(ctx, "activation_sweep", 30*time.Second, s.ActivationSweepJob)
		}},
		{"rent_generation", func(ctx context.Context) error {
			return s.runJob(ctx, "rent_generation", 30*time.Second, s.RentGenerationJob)
		}},
		{"expiry_sweep", func(ctx context.Context) error {
			return s.runJob(ctx, "expiry_sweep", 30*time.Second, s.ExpirySweepJob)
		}},
	}

	for _, job := range jobs {
		if s.isJobEnabled(job.Name) {
			err = errors.Join(err, job.Run(parent))
		}
	}
	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	// An empty allowlist enables every job.
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}
