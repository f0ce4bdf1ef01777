package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseway/leaseway/internal/clock"
	historydomain "github.com/leaseway/leaseway/internal/history/domain"
	"github.com/leaseway/leaseway/internal/rent/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	History historydomain.Service
}

type service struct {
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	history historydomain.Service
}

func NewService(p Params) domain.Service {
	return &service{
		log:     p.Log.Named("rent.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		history: p.History,
	}
}

func (s *service) EnsureReceipt(ctx context.Context, contractID snowflake.ID, period string, amount int64, currency string, dueAt time.Time) (bool, error) {
	now := s.clock.Now()
	created, err := s.repo.Insert(ctx, &domain.RentReceipt{
		ID:         s.genID.Generate(),
		ContractID: contractID,
		Period:     period,
		Amount:     amount,
		Currency:   currency,
		Status:     domain.StatusDue,
		DueAt:      dueAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	if err := s.history.Append(ctx, contractID, historydomain.ActionRentReceiptCreated, nil, map[string]any{
		"period":   period,
		"amount":   amount,
		"currency": currency,
	}); err != nil {
		s.log.Warn("rent history append failed",
			zap.String("contract_id", contractID.String()),
			zap.String("period", period),
			zap.Error(err),
		)
	}
	return true, nil
}

func (s *service) ListByContract(ctx context.Context, contractID snowflake.ID) ([]domain.RentReceipt, error) {
	return s.repo.ListByContract(ctx, contractID)
}

func (s *service) MarkPaid(ctx context.Context, id snowflake.ID) error {
	return s.repo.UpdateStatus(ctx, id, domain.StatusPaid, s.clock.Now())
}

func (s *service) MarkFailed(ctx context.Context, id snowflake.ID) error {
	return s.repo.UpdateStatus(ctx, id, domain.StatusFailed, s.clock.Now())
}
