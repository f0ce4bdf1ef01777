package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseway/leaseway/internal/clock"
	"github.com/leaseway/leaseway/internal/history/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &service{
		log:   p.Log.Named("history.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *service) Append(ctx context.Context, contractID snowflake.ID, action string, actorID *string, payload map[string]any) error {
	if payload == nil {
		payload = map[string]any{}
	}
	entry := &domain.HistoryEntry{
		ID:         s.genID.Generate(),
		ContractID: contractID,
		Action:     action,
		ActorID:    actorID,
		Payload:    payload,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.log.Error("append history entry",
			zap.String("contract_id", contractID.String()),
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) List(ctx context.Context, contractID snowflake.ID) ([]domain.HistoryEntry, error) {
	return s.repo.ListByContract(ctx, contractID)
}
