package scheduler

import (
	"context"
	"errors"
	"time"

	contractdomain "github.com/leaseway/leaseway/internal/contract/domain"
	obsmetrics "github.com/leaseway/leaseway/internal/observability/metrics"
	rentdomain "github.com/leaseway/leaseway/internal/rent/domain"
	"go.uber.org/zap"
)

// ActivationSweepJob promotes signed contracts whose start date has passed
// and whose deposit is paid. One contract's failure never aborts the sweep.
func (s *Scheduler) ActivationSweepJob(ctx context.Context) error {
	now := s.clock.Now()
	contracts, err := s.contractRepo.ListForActivation(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	var activated, failed int
	for i := range contracts {
		if ctx.Err() != nil {
			break
		}
		contract := &contracts[i]

		if _, err := s.contractSvc.Activate(ctx, contract.ID, nil, true); err != nil {
			// A concurrent manual activation loses the race here; that
			// is a success from the sweep's point of view.
			if errors.Is(err, contractdomain.ErrInvalidTransition) {
				continue
			}
			failed++
			s.log.Warn("activation sweep: contract failed",
				zap.String("contract_id", contract.ID.String()),
				zap.Error(err),
			)
			continue
		}
		activated++
	}

	obsmetrics.Scheduler().IncJobItems("activation_sweep", "activated", activated)
	obsmetrics.Scheduler().IncJobItems("activation_sweep", "failed", failed)
	if activated > 0 || failed > 0 {
		s.log.Info("activation sweep done",
			zap.Int("activated", activated),
			zap.Int("failed", failed),
		)
	}
	return ctx.Err()
}

// RentGenerationJob ensures one due receipt per active contract for the
// current billing period. The receipt's unique (contract, period) index
// makes a re-run a no-op.
func (s *Scheduler) RentGenerationJob(ctx context.Context) error {
	now := s.clock.Now()
	period := rentdomain.PeriodOf(now)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	dueAt := monthStart.AddDate(0, 0, s.cfg.RentDueOffsetDays)

	contracts, err := s.contractRepo.ListActive(ctx, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	var created, failed int
	for i := range contracts {
		if ctx.Err() != nil {
			break
		}
		contract := &contracts[i]

		// A contract that ends before this period opens collects no
		// further rent; the expiry sweep retires it.
		if contract.EndDate.Before(monthStart) {
			continue
		}

		wasCreated, err := s.rentSvc.EnsureReceipt(ctx, contract.ID, period, contract.RentAmount, contract.Currency, dueAt)
		if err != nil {
			failed++
			s.log.Warn("rent generation: contract failed",
				zap.String("contract_id", contract.ID.String()),
				zap.String("period", period),
				zap.Error(err),
			)
			continue
		}
		if wasCreated {
			created++
		}
	}

	obsmetrics.Scheduler().IncJobItems("rent_generation", "created", created)
	obsmetrics.Scheduler().IncJobItems("rent_generation", "failed", failed)
	if created > 0 || failed > 0 {
		s.log.Info("rent generation done",
			zap.String("period", period),
			zap.Int("created", created),
			zap.Int("failed", failed),
		)
	}
	return ctx.Err()
}

// ExpirySweepJob retires active contracts whose end date has passed.
func (s *Scheduler) ExpirySweepJob(ctx context.Context) error {
	now := s.clock.Now()
	contracts, err := s.contractRepo.ListExpired(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return err
	}

	var completed, failed int
	for i := range contracts {
		if ctx.Err() != nil {
			break
		}
		contract := &contracts[i]

		if _, err := s.contractSvc.Transition(ctx, contract.ID, contractdomain.StatusCompleted, nil); err != nil {
			if errors.Is(err, contractdomain.ErrInvalidTransition) {
				continue
			}
			failed++
			s.log.Warn("expiry sweep: contract failed",
				zap.String("contract_id", contract.ID.String()),
				zap.Error(err),
			)
			continue
		}
		completed++
	}

	obsmetrics.Scheduler().IncJobItems("expiry_sweep", "completed", completed)
	obsmetrics.Scheduler().IncJobItems("expiry_sweep", "failed", failed)
	if completed > 0 || failed > 0 {
		s.log.Info("expiry sweep done",
			zap.Int("completed", completed),
			zap.Int("failed", failed),
		)
	}
	return ctx.Err()
}
