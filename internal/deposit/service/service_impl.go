package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/leaseway/leaseway/internal/clock"
	contractdomain "github.com/leaseway/leaseway/internal/contract/domain"
	"github.com/leaseway/leaseway/internal/deposit/domain"
	historydomain "github.com/leaseway/leaseway/internal/history/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log          *zap.Logger
	Clock        clock.Clock
	ContractSvc  contractdomain.Service
	ContractRepo contractdomain.Repository
	Gateway      domain.Gateway
	History      historydomain.Service
}

type service struct {
	log          *zap.Logger
	clock        clock.Clock
	contractSvc  contractdomain.Service
	contractRepo contractdomain.Repository
	gateway      domain.Gateway
	history      historydomain.Service
}

func NewService(p Params) domain.Service {
	return &service{
		log:          p.Log.Named("deposit.service"),
		clock:        p.Clock,
		contractSvc:  p.ContractSvc,
		contractRepo: p.ContractRepo,
		gateway:      p.Gateway,
		history:      p.History,
	}
}

func (s *service) PayDeposit(ctx context.Context, contractID snowflake.ID, actorID snowflake.ID, req domain.PayDepositRequest) (*domain.PayDepositResponse, error) {
	contract, err := s.contractSvc.Get(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.TenantID != actorID {
		return nil, domain.ErrNotTenant
	}
	if contract.Deposit.Paid {
		return nil, domain.ErrAlreadyPaid
	}

	switch req.Destination {
	case contractdomain.DepositDestinationEscrow:
		return s.payEscrow(ctx, contract, req)
	case contractdomain.DepositDestinationAuthority:
		return s.payAuthority(ctx, contract, actorID)
	default:
		return nil, domain.ErrUnknownDestination
	}
}

// payEscrow opens a hosted-checkout session. The deposit is marked paid
// later, when the gateway confirms capture; here we only hand back the
// redirect.
func (s *service) payEscrow(ctx context.Context, contract *contractdomain.Contract, req domain.PayDepositRequest) (*domain.PayDepositResponse, error) {
	session, err := s.gateway.CreateCheckoutSession(ctx, domain.CheckoutRequest{
		ContractID: contract.ID,
		Amount:     contract.DepositAmount,
		Currency:   contract.Currency,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	s.log.Info("escrow checkout session opened",
		zap.String("contract_id", contract.ID.String()),
		zap.String("session_id", session.ID),
	)

	return &domain.PayDepositResponse{
		Paid:        false,
		Destination: contractdomain.DepositDestinationEscrow,
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

// payAuthority records a direct transfer to the regulatory authority. It
// settles synchronously: flag, timestamp, and history entry in one call.
func (s *service) payAuthority(ctx context.Context, contract *contractdomain.Contract, actorID snowflake.ID) (*domain.PayDepositResponse, error) {
	now := s.clock.Now()

	updated, err := s.contractRepo.MarkDepositPaid(ctx, contract.ID, contractdomain.DepositDestinationAuthority, now)
	if err != nil {
		return nil, fmt.Errorf("mark deposit paid: %w", err)
	}
	if !updated {
		return nil, domain.ErrAlreadyPaid
	}

	actor := actorID.String()
	if err := s.history.Append(ctx, contract.ID, historydomain.ActionDepositPaid, &actor, map[string]any{
		"destination": contractdomain.DepositDestinationAuthority,
		"amount":      contract.DepositAmount,
		"currency":    contract.Currency,
	}); err != nil {
		s.log.Warn("deposit history append failed",
			zap.String("contract_id", contract.ID.String()),
			zap.Error(err),
		)
	}

	return &domain.PayDepositResponse{
		Paid:        true,
		PaidAt:      &now,
		Destination: contractdomain.DepositDestinationAuthority,
	}, nil
}
